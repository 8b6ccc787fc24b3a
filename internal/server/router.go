package server

import (
	"github.com/gin-gonic/gin"

	"agent-bazaar/internal/claim"
	"agent-bazaar/internal/config"
	"agent-bazaar/internal/handler"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/store"
)

type Deps struct {
	Store    *store.Store
	Config   config.Config
	Verifier *claim.Verifier
	Limiter  *middleware.RateLimiter
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	// Identity first, then throttling: the limiter keys on the resolved
	// actor when one is present.
	r.Use(middleware.Identify(deps.Store, deps.Config.AdminSecret))
	r.Use(middleware.RateLimit(deps.Limiter))

	agentHandler := &handler.AgentHandler{Store: deps.Store, Verifier: deps.Verifier, PublicBaseURL: deps.Config.PublicBaseURL}
	humanHandler := &handler.HumanHandler{Store: deps.Store, Verifier: deps.Verifier, PublicBaseURL: deps.Config.PublicBaseURL}
	requestHandler := &handler.RequestHandler{Store: deps.Store}
	pitchHandler := &handler.PitchHandler{Store: deps.Store}
	productHandler := &handler.ProductHandler{Store: deps.Store}
	messageHandler := &handler.MessageHandler{Store: deps.Store}
	notificationHandler := &handler.NotificationHandler{Store: deps.Store}
	adminHandler := &handler.AdminHandler{Store: deps.Store}

	v1 := r.Group("/v1")

	v1.POST("/agents/register", agentHandler.Register)
	v1.POST("/agents/:id/claim", agentHandler.Claim)
	v1.GET("/agents/me", agentHandler.Me)
	v1.GET("/agents/:id", agentHandler.PublicProfile)

	v1.POST("/humans/register", humanHandler.Register)
	v1.POST("/humans/:id/claim", humanHandler.Claim)
	v1.POST("/humans/login", humanHandler.Login)
	v1.GET("/humans/me", middleware.RequireHuman(), humanHandler.Me)

	v1.POST("/requests", requestHandler.Create)
	v1.GET("/requests", requestHandler.List)
	v1.GET("/requests/:id", requestHandler.Get)
	v1.PATCH("/requests/:id", requestHandler.UpdateStatus)
	v1.DELETE("/requests/:id", requestHandler.Delete)
	v1.POST("/requests/:id/block", requestHandler.BlockAgent)

	v1.PUT("/products", middleware.RequireClaimedAgent(), productHandler.Upsert)
	v1.GET("/products", middleware.RequireClaimedAgent(), productHandler.List)
	v1.DELETE("/products/:id", middleware.RequireClaimedAgent(), productHandler.Delete)

	v1.POST("/pitches", middleware.RequireClaimedAgent(), pitchHandler.Create)

	v1.POST("/messages", messageHandler.Create)
	v1.GET("/messages", messageHandler.List)

	v1.GET("/notifications", middleware.RequireHuman(), notificationHandler.Counts)
	v1.POST("/notifications/seen", middleware.RequireHuman(), notificationHandler.MarkSeen)

	mod := v1.Group("/mod", middleware.RequireAdmin())
	mod.POST("/pitches/:id/hide", adminHandler.PitchVisibility(true))
	mod.POST("/pitches/:id/unhide", adminHandler.PitchVisibility(false))
	mod.POST("/requests/:id/hide", adminHandler.RequestVisibility(true))
	mod.POST("/requests/:id/unhide", adminHandler.RequestVisibility(false))
	mod.POST("/messages/:id/hide", adminHandler.MessageVisibility(true))
	mod.POST("/messages/:id/unhide", adminHandler.MessageVisibility(false))
	mod.POST("/agents/:id/suspend", adminHandler.AgentStatus("suspend"))
	mod.POST("/agents/:id/unsuspend", adminHandler.AgentStatus("unsuspend"))
	mod.POST("/agents/:id/ban", adminHandler.AgentStatus("ban"))
	mod.POST("/humans/:id/suspend", adminHandler.HumanStatus("suspend"))
	mod.POST("/humans/:id/unsuspend", adminHandler.HumanStatus("unsuspend"))
	mod.POST("/humans/:id/ban", adminHandler.HumanStatus("ban"))
	mod.GET("/log", adminHandler.Log)

	return r
}
