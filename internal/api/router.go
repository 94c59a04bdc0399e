package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/app"
	iauth "github.com/sproutbook/sproutbook/internal/auth"
	"github.com/sproutbook/sproutbook/internal/handlers"
	"github.com/sproutbook/sproutbook/internal/middleware"
	"github.com/sproutbook/sproutbook/internal/services"
	"github.com/sproutbook/sproutbook/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	userService, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	childService, err := services.NewChildService(db)
	if err != nil {
		return nil, err
	}
	invitationService, err := services.NewInvitationService(db,
		services.WithInvitationExpiry(cfg.Invitations.Expiry),
		services.WithInvitationTokenSize(cfg.Invitations.TokenBytes),
		services.WithInvitationMailer(mailer),
		services.WithInvitationBaseURL(cfg.Server.BaseURL),
	)
	if err != nil {
		return nil, err
	}
	memoryService, err := services.NewMemoryService(db)
	if err != nil {
		return nil, err
	}
	albumService, err := services.NewAlbumService(db)
	if err != nil {
		return nil, err
	}
	milestoneService, err := services.NewMilestoneService(db)
	if err != nil {
		return nil, err
	}
	growthService, err := services.NewGrowthService(db)
	if err != nil {
		return nil, err
	}
	storyService, err := services.NewStoryService(db)
	if err != nil {
		return nil, err
	}
	exportService, err := services.NewExportService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(userService, jwt)
	childHandler := handlers.NewChildHandler(childService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, jwt)
	memoryHandler := handlers.NewMemoryHandler(memoryService)
	albumHandler := handlers.NewAlbumHandler(albumService)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService)
	growthHandler := handlers.NewGrowthHandler(growthService)
	storyHandler := handlers.NewStoryHandler(storyService)
	exportHandler := handlers.NewExportHandler(exportService)

	// Public routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	r.GET("/api/invitations/:token", invitationHandler.Preview)
	r.POST("/api/invitations/accept", invitationHandler.Accept)
	r.GET("/api/features", handlers.FeatureCatalog())

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	children := api.Group("/children")
	{
		children.POST("", childHandler.Create)
		children.GET("", childHandler.List)
		children.GET("/:id", childHandler.Get)
		children.PATCH("/:id", childHandler.Update)
		children.GET("/:id/features", childHandler.Features)
		children.POST("/:id/transfer", childHandler.TransferOwnership)
		children.POST("/:id/link-account", childHandler.LinkAccount)

		children.GET("/:id/invitations", invitationHandler.ListForChild)
		children.GET("/:id/memories", memoryHandler.ListForChild)
		children.GET("/:id/memories/map", memoryHandler.Map)
		children.GET("/:id/albums", albumHandler.ListForChild)
		children.GET("/:id/milestones", milestoneHandler.ListForChild)
		children.GET("/:id/growth", growthHandler.Chart)
		children.GET("/:id/stories", storyHandler.ListForChild)
		children.POST("/:id/exports", exportHandler.Request)
		children.GET("/:id/exports", exportHandler.ListForChild)
	}

	api.POST("/invitations", invitationHandler.Issue)
	api.DELETE("/invitations/:id", invitationHandler.Revoke)

	memories := api.Group("/memories")
	{
		memories.POST("", memoryHandler.Create)
		memories.GET("/:id", memoryHandler.Get)
		memories.PATCH("/:id", memoryHandler.Update)
		memories.DELETE("/:id", memoryHandler.Delete)
		memories.POST("/:id/reactions", memoryHandler.ToggleReaction)
		memories.POST("/:id/comments", memoryHandler.AddComment)
		memories.GET("/:id/comments", memoryHandler.ListComments)
	}
	api.DELETE("/comments/:id", memoryHandler.DeleteComment)

	albums := api.Group("/albums")
	{
		albums.POST("", albumHandler.Create)
		albums.GET("/:id", albumHandler.Get)
		albums.PATCH("/:id", albumHandler.Update)
		albums.DELETE("/:id", albumHandler.Delete)
		albums.POST("/:id/memories", albumHandler.AddMemory)
		albums.DELETE("/:id/memories/:memoryId", albumHandler.RemoveMemory)
		albums.PUT("/:id/order", albumHandler.Reorder)
		albums.PUT("/:id/cover", albumHandler.SetCover)
	}

	api.GET("/milestones/catalog", milestoneHandler.Catalog)
	api.POST("/milestones", milestoneHandler.Record)
	api.DELETE("/milestones/:id", milestoneHandler.Delete)

	api.POST("/growth", growthHandler.Record)
	api.DELETE("/growth/:id", growthHandler.Delete)

	api.POST("/stories", storyHandler.Request)
	api.POST("/stories/:id/favorite", storyHandler.ToggleFavorite)

	api.GET("/exports/:id", exportHandler.Get)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
