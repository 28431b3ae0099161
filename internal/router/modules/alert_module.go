package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safespace-app/safespace-api/internal/container"
	handlers "github.com/safespace-app/safespace-api/internal/interface/http"
	"github.com/safespace-app/safespace-api/internal/interface/middleware"
	"github.com/safespace-app/safespace-api/pkg/helpers"
)

// AlertModule wires the dispatch surface detectors call and the alert
// management routes the dashboard uses.
// Public: POST /api/send-alert, GET /api/health
// Protected: GET /api/alerts, POST /api/alerts/:id/resolve, GET /api/alerts/search

type AlertModule struct {
	Handler *handlers.AlertHandler
	Health  *handlers.HealthHandler
	JWT     *helpers.JWTManager
}

func NewAlertModule(h *handlers.AlertHandler, health *handlers.HealthHandler, jwt *helpers.JWTManager) *AlertModule {
	return &AlertModule{Handler: h, Health: health, JWT: jwt}
}

func (m *AlertModule) Register(rg *gin.RouterGroup) {
	// Dispatch is public so detectors can post without a browser session.
	// The per-IP limiter is the abuse guard; private ranges bypass it so
	// co-located detectors are never throttled.
	sendLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	healthLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.POST("/send-alert", sendLimiter, m.Handler.SendAlert)
	rg.GET("/health", healthLimiter, m.Health.Health)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/alerts", m.Handler.ListAlerts)
		auth.GET("/alerts/search", m.Handler.SearchAlerts)
		auth.POST("/alerts/:id/resolve", m.Handler.ResolveAlert)
	}
}
