package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stratumlab/sowforge/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	SOW       *SOWHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/documents", middleware.RateLimit(time.Second), deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)

	authGroup.POST("/search", deps.Documents.Search)

	authGroup.POST("/sow", middleware.RateLimit(time.Second), deps.SOW.Generate)
	authGroup.GET("/sow", deps.SOW.List)
	authGroup.GET("/sow/:id", deps.SOW.Get)
	authGroup.GET("/sow/:id/export", deps.SOW.Export)
}
