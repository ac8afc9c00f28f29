package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/pkg/logger"
)

// UnexpectedErrorMessage is the fixed "error" field of every 500 envelope.
const UnexpectedErrorMessage = "An unexpected error occurred."

// ErrorResponse is the JSON envelope for unexpected failures.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// WriteUnexpected responds 500 with the error envelope and aborts the chain.
func WriteUnexpected(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:  UnexpectedErrorMessage,
		Detail: detail,
	})
}

// Recovery returns a Gin middleware that turns any panic raised downstream
// into a 500 JSON response. The failure is logged and not re-raised.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			// the client went away; there is nobody to answer
			if r == http.ErrAbortHandler {
				panic(r)
			}

			detail := panicMessage(r)
			logger.WithContext(c.Request.Context(), log).Error("unhandled failure",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("detail", detail),
				zap.Stack("stack"),
			)

			// drop a partial body still held by the logging stage
			if w, ok := c.Writer.(interface{ Reset() }); ok {
				w.Reset()
			}
			WriteUnexpected(c, detail)
		}()

		c.Next()
	}
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
