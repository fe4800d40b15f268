package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userIDKey = "userId"

// TokenParser verifies a bearer token and returns the user it was issued to.
type TokenParser interface {
	ParseToken(raw string) (primitive.ObjectID, error)
}

// UserAuth validates the bearer token and injects the userId into the context.
func UserAuth(tokens TokenParser, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			log.Debug().Str("path", c.FullPath()).Msg("missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You are not authenticated"})
			return
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Debug().Str("path", c.FullPath()).Msg("invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}

		userID, err := tokens.ParseToken(parts[1])
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user set by UserAuth.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}
