package middleware

import (
	"bytes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/pkg/logger"
)

// bufferedWriter holds the response body back from the client until the
// downstream handlers have finished. Status and headers pass through to the
// wrapped writer, which only commits them on the first real write.
type bufferedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// Reset drops the body buffered so far along with its content type. Nothing
// has reached the client yet, so a later stage can replace the response.
func (w *bufferedWriter) Reset() {
	w.body.Reset()
	w.Header().Del("Content-Type")
}

// Logger returns a Gin middleware that logs each request line, then buffers
// the downstream response, logs its status and full body, and finally copies
// the body unmodified to the client.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger.WithContext(c.Request.Context(), log)
		l.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		original := c.Writer
		buffered := &bufferedWriter{ResponseWriter: original, body: &bytes.Buffer{}}
		c.Writer = buffered

		defer func() {
			c.Writer = original
		}()

		c.Next()

		l.Info("response",
			zap.Int("status", original.Status()),
			zap.String("body", buffered.body.String()),
		)

		if buffered.body.Len() > 0 {
			if _, err := original.Write(buffered.body.Bytes()); err != nil {
				l.Warn("failed to flush response body", zap.Error(err))
			}
		}
	}
}
