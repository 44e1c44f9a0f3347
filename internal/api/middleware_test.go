package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazemadel/edumsg/internal/auth"
	"github.com/hazemadel/edumsg/internal/models"
)

func setupAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWTKey([]byte("middleware-test-key"))

	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/whoami", func(c *gin.Context) {
		actor, _ := actorFromContext(c)
		name, _ := c.Get("name")
		c.JSON(http.StatusOK, gin.H{"actor": actor, "name": name})
	})

	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := setupAuthTestRouter(t)

	actor := models.Actor{Role: models.RoleTeacher, ID: 4}
	token, _, err := auth.GenerateToken(actor, "Ms. Salwa")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer invalid.token.string", http.StatusUnauthorized},
		{"missing Bearer prefix", token, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var response struct {
					Actor models.Actor `json:"actor"`
					Name  string       `json:"name"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, actor, response.Actor)
				assert.Equal(t, "Ms. Salwa", response.Name)
			}
		})
	}
}

func TestAuthMiddlewareRejectsForeignKey(t *testing.T) {
	router := setupAuthTestRouter(t)

	auth.InitJWTKey([]byte("some-other-key"))
	token, _, err := auth.GenerateToken(models.Actor{Role: models.RoleStudent, ID: 11}, "Omar")
	require.NoError(t, err)
	auth.InitJWTKey([]byte("middleware-test-key"))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
