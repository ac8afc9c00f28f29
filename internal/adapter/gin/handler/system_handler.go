package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RootMessage is the body of GET /.
const RootMessage = "This is root"

// TestExceptionMessage is the failure raised by GET /exception.
const TestExceptionMessage = "This is a test exception!"

// Root handles GET /
func Root(c *gin.Context) {
	c.String(http.StatusOK, RootMessage)
}

// Exception handles GET /exception. It always panics so the recovery
// stage can be exercised end to end.
func Exception(_ *gin.Context) {
	panic(errors.New(TestExceptionMessage))
}

// Health handles GET /health
func Health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": service,
		})
	}
}
