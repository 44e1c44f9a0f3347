package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hazemadel/edumsg/internal/logger"
	"github.com/hazemadel/edumsg/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// Initialized from the environment, or explicitly via InitJWTKey
	// after configuration is loaded.
	jwtKey = []byte(os.Getenv("JWT_SECRET"))
	log    = logger.New("auth")
)

// InitJWTKey initializes the JWT key with the provided secret. Used
// after environment loading at startup, and for custom keys in tests.
func InitJWTKey(key []byte) {
	jwtKey = key
}

// Claims carries the authenticated actor. Every boundary caller
// supplies its own (role, id) this way; the engine never guesses.
type Claims struct {
	Role    string `json:"role"`
	ActorID int64  `json:"actor_id"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// Actor returns the authenticated actor the claims describe.
func (c *Claims) Actor() models.Actor {
	return models.Actor{Role: models.Role(c.Role), ID: c.ActorID}
}

// GenerateToken creates a new JWT for an authenticated actor.
func GenerateToken(actor models.Actor, name string) (string, time.Time, error) {
	if err := actor.Validate(); err != nil {
		return "", time.Time{}, err
	}

	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &Claims{
		Role:    string(actor.Role),
		ActorID: actor.ID,
		Name:    name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)

	return tokenString, expirationTime, err
}

// ValidateToken validates a JWT and returns its claims.
func ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		log.Warn("validating empty token")
		return nil, ErrInvalidToken
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !models.Role(claims.Role).Valid() || claims.ActorID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
