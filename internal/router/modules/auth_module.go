package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safespace-app/safespace-api/internal/container"
	handlers "github.com/safespace-app/safespace-api/internal/interface/http"
	"github.com/safespace-app/safespace-api/internal/interface/middleware"
	"github.com/safespace-app/safespace-api/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	signupLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	oauthLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/logout", m.Handler.Logout)
	rg.POST("/auth/reset/init", resetInitLimiter, m.Handler.ResetPassword)
	rg.POST("/auth/reset/confirm", resetConfirmLimiter, m.Handler.ConfirmReset)
	rg.GET("/auth/oauth/google", oauthLimiter, m.Handler.GoogleRedirect)
	rg.GET("/auth/oauth/google/callback", oauthLimiter, m.Handler.GoogleCallback)

	// Protected password change with user-based rate limit
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.PUT("/auth/password", m.Handler.UpdatePassword)
	}
}
