package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safespace-app/safespace-api/internal/container"
	handlers "github.com/safespace-app/safespace-api/internal/interface/http"
	"github.com/safespace-app/safespace-api/internal/interface/middleware"
	"github.com/safespace-app/safespace-api/pkg/helpers"
)

// UserModule wires the dashboard and profile routes.
// Protected: GET /api/dashboard, GET/PUT /api/profile,
// PUT /api/profile/name, PUT /api/profile/avatar

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	// Soft per-IP plus per-user limits on all protected routes
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/dashboard", m.Handler.Dashboard)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/profile/name", m.Handler.CompleteName)
		auth.PUT("/profile/avatar", m.Handler.UploadAvatar)
	}
}
