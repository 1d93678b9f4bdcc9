package router

import (
	"pollboard/internal/authz"
	"pollboard/internal/config"
	"pollboard/internal/handler"
	"pollboard/internal/middleware"
	"pollboard/internal/ratelimit"
	"pollboard/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the Gin engine, middleware and API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	gate := authz.NewGate(db, cfg.Admin.Emails)
	limiter := ratelimit.NewWindowLimiter()
	polls := service.NewPollService(db, gate, limiter, cfg.RateLimit)

	authHandler := handler.NewAuthHandler(db, limiter, cfg.RateLimit, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	pollHandler := handler.NewPollHandler(polls)
	voteHandler := handler.NewVoteHandler(polls)
	adminHandler := handler.NewAdminHandler(polls)

	api := r.Group("/api")

	// no auth needed
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// public reads; a token is honored when present so responses can
	// carry the caller's own vote
	public := api.Group("")
	public.Use(middleware.OptionalAuth(cfg.JWT.Secret, db))
	public.GET("/polls", pollHandler.List)
	public.GET("/polls/:id", pollHandler.Get)

	// login required
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.JWT.Secret, db))

	protected.GET("/me", handler.GetMe(gate))
	protected.POST("/polls", pollHandler.Create)
	protected.GET("/polls/mine", pollHandler.ListMine)
	protected.PUT("/polls/:id", pollHandler.Update)
	protected.DELETE("/polls/:id", pollHandler.Delete)
	protected.POST("/polls/:id/vote", voteHandler.Submit)

	// admin moderation (allow-list checked per request by the gate)
	admin := protected.Group("/admin")
	admin.GET("/polls", adminHandler.ListPolls)
	admin.DELETE("/polls/:id", adminHandler.DeletePoll)

	return r
}
