package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextUserKey = "auth.user"

// ContextUser is the authenticated principal attached to a request context.
type ContextUser struct {
	ID          uuid.UUID
	Email       string
	AccessLevel int
}

type verifier interface {
	VerifyAccessToken(token string) (ContextUser, error)
}

// RequireUser returns middleware that rejects requests without a valid
// bearer token and stores the principal on the gin context.
func RequireUser(auth verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := auth.VerifyAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// UserFromContext extracts the authenticated principal set by RequireUser.
func UserFromContext(c *gin.Context) (ContextUser, bool) {
	val, exists := c.Get(contextUserKey)
	if !exists {
		return ContextUser{}, false
	}
	user, ok := val.(ContextUser)
	return user, ok
}
