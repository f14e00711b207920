package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/server/api"
	"github.com/lorekeep/lorekeep/internal/server/biz"
	"github.com/lorekeep/lorekeep/internal/server/middleware"
)

type Handlers struct {
	fx.In

	System    *api.SystemHandlers
	Lifecycle *api.LifecycleHandlers
	Privacy   *api.PrivacyHandlers
	Search    *api.SearchHandlers
}

type Services struct {
	fx.In

	AuthService *biz.AuthService
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group("", middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
		publicGroup.GET("/build-info", handlers.System.BuildInfo)
	}

	adminGroup := server.Group("/admin",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(services.AuthService),
	)
	{
		lifecycleGroup := adminGroup.Group("/lifecycle")
		lifecycleGroup.GET("/stats", handlers.Lifecycle.GetStats)
		lifecycleGroup.GET("/entities", handlers.Lifecycle.GetAllEntities)
		lifecycleGroup.POST("/entities", handlers.Lifecycle.CreateEntity)
		lifecycleGroup.GET("/entities/:id/history", handlers.Lifecycle.GetStateHistory)
		lifecycleGroup.GET("/entities/:id/prevent-history", handlers.Lifecycle.GetPreventHistory)
		lifecycleGroup.GET("/queue", handlers.Lifecycle.GetDissolutionQueue)
		lifecycleGroup.POST("/transition", handlers.Lifecycle.TransitionEntity)
		lifecycleGroup.POST("/review", handlers.Lifecycle.MarkReviewed)
		lifecycleGroup.POST("/prevent", handlers.Lifecycle.PreventDissolution)
		lifecycleGroup.POST("/postpone", handlers.Lifecycle.PostponeDissolution)
		lifecycleGroup.POST("/approve", handlers.Lifecycle.ApproveDissolution)

		privacyGroup := adminGroup.Group("/privacy")
		privacyGroup.POST("/classify", handlers.Privacy.ClassifyEntity)
		privacyGroup.POST("/classify/bulk", handlers.Privacy.BulkClassify)
		privacyGroup.GET("/entities/:id/flags", handlers.Privacy.GetEffectiveFlags)

		searchGroup := adminGroup.Group("/search")
		searchGroup.POST("/traceback", handlers.Search.ResolveTraceback)
	}
}
