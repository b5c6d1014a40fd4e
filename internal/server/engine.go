package server

import (
	"log/slog"

	"github.com/potluckhq/potluck-manager/internal/middleware"
	"github.com/potluckhq/potluck-manager/pkg/eventsync"
	"github.com/potluckhq/potluck-manager/pkg/guild"
	"github.com/potluckhq/potluck-manager/pkg/health"
	"github.com/potluckhq/potluck-manager/pkg/potluck"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func GetEngine(logger *slog.Logger, basePath string, potluckHandler potluck.Handler, guildHandler guild.Handler, eventHandler eventsync.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler())

	router := r.Group(basePath)

	router.GET("/health", health.Health)

	potluck.Routes(router, potluckHandler)
	guild.Routes(router, guildHandler)
	eventsync.Routes(router, eventHandler)

	return r
}
