package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/heblopez/postable-api/auth"
)

const identityKey = "identity"

// Identity is the caller resolved from the request's bearer token.
type Identity struct {
	Authenticated bool
	UserID        uint
	Username      string
	Role          string
}

// Authenticate resolves the Authorization header once per request. Requests
// without a valid token continue as anonymous; RequireAuth rejects them where
// authentication matters.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, resolve(c, tokens))
		c.Next()
	}
}

func resolve(c *gin.Context, tokens *auth.TokenIssuer) Identity {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return Identity{}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}
	}

	claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		log.Printf("[Authenticate] token rejected: %v", err)
		return Identity{}
	}

	// Verify has already checked the subject.
	userID, _ := claims.UserID()
	return Identity{
		Authenticated: true,
		UserID:        userID,
		Username:      claims.Username,
		Role:          claims.Role,
	}
}

// RequireAuth aborts with 401 unless Authenticate resolved a user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip for OPTIONS requests (CORS preflight)
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if !CurrentIdentity(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Provide a valid token as: Authorization: Bearer <token>",
			})
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
