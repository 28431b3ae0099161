package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/safespace-app/safespace-api/internal/application"
	"github.com/safespace-app/safespace-api/internal/domain/entity"
	"github.com/safespace-app/safespace-api/pkg/response"
)

type AlertHandler struct {
	Svc    *app.AlertService
	Logger *logrus.Logger
}

func NewAlertHandler(svc *app.AlertService, logger *logrus.Logger) *AlertHandler {
	return &AlertHandler{Svc: svc, Logger: logger}
}

// SendAlert is the dispatch endpoint detectors post to. It speaks the
// bare wire shape: failures are {"error": "..."} and success is
// {"success": true, "data": {...}}, with no envelope.
func (h *AlertHandler) SendAlert(c *gin.Context) {
	var in app.NotificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	data, err := h.Svc.Dispatch(c.Request.Context(), in)
	if err != nil {
		if fe, ok := app.AsFieldError(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fe.Message})
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("alert dispatch failed")
		}
		if errors.Is(err, app.ErrDeliveryUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notification delivery unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func alertJSON(a *entity.Alert) gin.H {
	return gin.H{
		"id":          a.ID,
		"user_id":     a.UserID,
		"alert_type":  a.AlertType,
		"content":     a.Content,
		"latitude":    a.Latitude,
		"longitude":   a.Longitude,
		"is_resolved": a.IsResolved,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}

// ListAlerts returns the signed-in user's alerts, newest first.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	uid := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	alerts, err := h.Svc.List(uid, limit)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list alerts", nil)
		return
	}
	out := make([]gin.H, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertJSON(a))
	}
	response.Success(c, http.StatusOK, out, "alerts", map[string]any{"count": len(out)})
}

// ResolveAlert marks one of the user's alerts resolved.
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	uid := c.GetString("userID")
	a, err := h.Svc.Resolve(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "alert not found", nil)
		return
	}
	response.Success(c, http.StatusOK, alertJSON(a), "alert resolved", nil)
}

// SearchAlerts performs a full-text search over the user's alert content.
func (h *AlertHandler) SearchAlerts(c *gin.Context) {
	uid := c.GetString("userID")
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchAlerts(c.Request.Context(), uid, q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("alert search failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
