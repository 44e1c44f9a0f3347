package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazemadel/edumsg/internal/logger"
	"github.com/hazemadel/edumsg/internal/messaging"
)

var log = logger.New("api")

func statusForCode(code string) int {
	switch code {
	case messaging.CodeValidation:
		return http.StatusBadRequest
	case messaging.CodeNotFound:
		return http.StatusNotFound
	case messaging.CodePermissionDenied:
		return http.StatusForbidden
	case messaging.CodeInvalidState:
		return http.StatusConflict
	case messaging.CodeExternalLookup:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates an engine error into the boundary's failure
// shape. Known causes keep their stable code; anything else is reported
// as an opaque internal failure without leaking detail.
func writeError(c *gin.Context, err error) {
	var engineErr *messaging.Error
	if errors.As(err, &engineErr) {
		c.JSON(statusForCode(engineErr.Code), gin.H{
			"error": gin.H{"code": engineErr.Code, "message": engineErr.Message},
		})
		return
	}

	log.Error("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"code": "internal_error", "message": "internal error"},
	})
}
