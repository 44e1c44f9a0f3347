package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazemadel/edumsg/internal/auth"
	"github.com/hazemadel/edumsg/internal/directory"
	"github.com/hazemadel/edumsg/internal/models"
)

// AuthHandler authenticates actors against the platform's identity
// stores and issues tokens.
type AuthHandler struct {
	Dir directory.Directory
}

func NewAuthHandler(dir directory.Directory) *AuthHandler {
	return &AuthHandler{Dir: dir}
}

type loginRequest struct {
	Role models.Role `json:"role" binding:"required"`
	// Identifier is the email for admins, the phone number otherwise.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a JWT for the actor.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	account, err := h.Dir.LookupAccount(req.Role, req.Identifier)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		writeError(c, err)
		return
	}

	if !auth.CheckPasswordHash(req.Password, account.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := auth.GenerateToken(account.Actor, account.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"actor":      account.Actor,
		"name":       account.Name,
	})
}
