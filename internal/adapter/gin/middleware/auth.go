package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/pkg/logger"
	"user-crud-service/pkg/security"
)

// UnauthorizedMessage is the body of every 401 response.
const UnauthorizedMessage = "Unauthorized: Invalid or missing token."

// Auth returns a Gin middleware that admits only requests carrying
// "Authorization: Bearer <token>". Rejected requests never reach later stages.
func Auth(token string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !security.MatchBearer(c.GetHeader("Authorization"), token) {
			logger.WithContext(c.Request.Context(), log).Warn("rejected request without valid bearer token",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.String(http.StatusUnauthorized, UnauthorizedMessage)
			c.Abort()
			return
		}

		c.Next()
	}
}
