package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// notFoundBody matches the body gin writes for unmatched routes.
const notFoundBody = "404 page not found"

// IntParam returns a Gin middleware that rejects a request as an unmatched
// route unless the named path parameter is a 32-bit integer. The parsed value
// is stored in the context under the parameter name as an int64.
func IntParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := strconv.ParseInt(c.Param(name), 10, 32)
		if err != nil {
			c.String(http.StatusNotFound, notFoundBody)
			c.Abort()
			return
		}

		c.Set(name, v)
		c.Next()
	}
}
