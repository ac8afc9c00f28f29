package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/pkg/logger"
)

// Options carries the settings the router needs from configuration.
type Options struct {
	AuthToken   string
	ServiceName string
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
//
// Every request passes request id, auth, logging, recovery and rate limiting,
// in that order. Rejected credentials never reach the logging stage, and
// the logging stage sees the 500 envelope written by recovery.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	opts Options,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// a known path with an unsupported method is 405, not 404
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Auth(opts.AuthToken, log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(rateLimiter.Handler())

	router.GET("/", handler.Root)
	router.GET("/exception", handler.Exception)
	router.GET("/health", handler.Health(opts.ServiceName))

	users := router.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)

		byID := users.Group("/:id", middleware.IntParam("id"))
		byID.GET("", userHandler.GetUser)
		byID.PUT("", userHandler.UpdateUser)
		byID.DELETE("", userHandler.DeleteUser)
	}

	return router
}
