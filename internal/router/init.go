package router

import (
	app "github.com/safespace-app/safespace-api/internal/application"
	"github.com/safespace-app/safespace-api/internal/container"
	pginfra "github.com/safespace-app/safespace-api/internal/infrastructure/postgres"
	handlers "github.com/safespace-app/safespace-api/internal/interface/http"
	"github.com/safespace-app/safespace-api/internal/router/modules"
)

type Deps struct {
	AuthService  *app.AuthService
	AlertService *app.AlertService

	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	AlertHandler  *handlers.AlertHandler
	HealthHandler *handlers.HealthHandler
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	identities := pginfra.NewIdentityRepository(pool)
	users := pginfra.NewUserRepository(pool)
	alerts := pginfra.NewAlertRepository(pool)

	authSvc := &app.AuthService{
		Identities: identities,
		Users:      users,
		JWT:        container.GetJWT(),
		Redis:      container.GetRedis(),
		Logger:     container.GetLogger(),
		Cfg:        cfg,
		Pub:        container.GetRabbitPub(),
		OAuth:      container.GetOAuth(),
		GCS:        container.GetGCS(),
		GCSBucket:  cfg.GCSBucket,
	}

	alertSvc := &app.AlertService{
		Alerts:        alerts,
		Users:         users,
		Pub:           container.GetRabbitPub(),
		Logger:        container.GetLogger(),
		ES:            container.GetES(),
		ESAlertsIndex: cfg.ESAlertsIndex,
		MailEnabled:   cfg.MailSendEnabled,
	}

	return Deps{
		AuthService:   authSvc,
		AlertService:  alertSvc,
		AuthHandler:   handlers.NewAuthHandler(authSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure, cfg.FrontendOrigin),
		UserHandler:   handlers.NewUserHandler(authSvc, container.GetLogger()),
		AlertHandler:  handlers.NewAlertHandler(alertSvc, container.GetLogger()),
		HealthHandler: handlers.NewHealthHandler(container.GetPGPool(), container.GetRabbitPub(), container.GetMailgun()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(deps.AuthHandler, jwt))
	r.Add(modules.NewUserModule(deps.UserHandler, jwt))
	r.Add(modules.NewAlertModule(deps.AlertHandler, deps.HealthHandler, jwt))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
