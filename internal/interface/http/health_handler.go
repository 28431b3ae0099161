package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safespace-app/safespace-api/pkg/helpers"
	"github.com/safespace-app/safespace-api/pkg/mailer"
)

type HealthHandler struct {
	Pool    *pgxpool.Pool
	Rabbit  *helpers.RabbitPublisher
	Mailgun *mailer.Mailgun
}

func NewHealthHandler(pool *pgxpool.Pool, rabbit *helpers.RabbitPublisher, mg *mailer.Mailgun) *HealthHandler {
	return &HealthHandler{Pool: pool, Rabbit: rabbit, Mailgun: mg}
}

// Health reports whether the delivery pipeline is up, in the bare wire
// shape clients poll: {"status": ..., "services": {...}}. "connected"
// means the dependency is wired and answering, not merely that this
// process is alive.
func (h *HealthHandler) Health(c *gin.Context) {
	services := map[string]string{
		"postgres": "disconnected",
		"rabbitmq": "disconnected",
		"mailgun":  "disconnected",
	}

	if h.Pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		if err := h.Pool.Ping(ctx); err == nil {
			services["postgres"] = "connected"
		}
		cancel()
	}
	if h.Rabbit.Connected() {
		services["rabbitmq"] = "connected"
	}
	if h.Mailgun.Configured() {
		services["mailgun"] = "connected"
	}

	status := "healthy"
	for _, s := range services {
		if s != "connected" {
			status = "degraded"
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "services": services})
}
