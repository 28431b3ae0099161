package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/safespace-app/safespace-api/internal/application"
	"github.com/safespace-app/safespace-api/internal/domain/entity"
)

type stubAlertRepo struct {
	created []*entity.Alert
}

func (r *stubAlertRepo) Create(a *entity.Alert) error {
	a.ID = "alert-1"
	r.created = append(r.created, a)
	return nil
}
func (r *stubAlertRepo) GetByID(id string) (*entity.Alert, error) { return nil, errors.New("nope") }
func (r *stubAlertRepo) ListByUser(userID string, limit int) ([]*entity.Alert, error) {
	return nil, nil
}
func (r *stubAlertRepo) Resolve(id string) error { return errors.New("nope") }

func newSendAlertRouter(repo *stubAlertRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := &app.AlertService{Alerts: repo}
	h := NewAlertHandler(svc, nil)
	r := gin.New()
	r.POST("/api/send-alert", h.SendAlert)
	return r
}

func TestSendAlertMissingFieldsWireShape(t *testing.T) {
	r := newSendAlertRouter(&stubAlertRepo{})

	body := `{"user_id":"u1","alert_type":"emergency"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send-alert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bare shape: a single "error" key, no envelope.
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Missing required fields: emergency contact email or user name", resp["error"])
	assert.NotContains(t, resp, "status")
	assert.NotContains(t, resp, "success")
}

func TestSendAlertSuccessWireShape(t *testing.T) {
	repo := &stubAlertRepo{}
	r := newSendAlertRouter(repo)

	body := `{"user_id":"u1","user_name":"Jamie","emergency_contact_email":"mom@example.com","alert_type":"emergency","latitude":40.0,"longitude":-73.0}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send-alert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "alert-1", resp.Data["alert_id"])
	require.Len(t, repo.created, 1)
	assert.Equal(t, entity.AlertEmergency, repo.created[0].AlertType)
}

func TestSendAlertDeliveryUnavailableWireShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Mail enabled but no queue publisher: the endpoint must not report
	// success for an email that can never be sent.
	svc := &app.AlertService{Alerts: &stubAlertRepo{}, MailEnabled: true}
	h := NewAlertHandler(svc, nil)
	r := gin.New()
	r.POST("/api/send-alert", h.SendAlert)

	body := `{"user_id":"u1","user_name":"Jamie","emergency_contact_email":"mom@example.com","alert_type":"emergency"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send-alert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "notification delivery unavailable", resp["error"])
	assert.NotContains(t, resp, "success")
}

func TestSendAlertMalformedBody(t *testing.T) {
	r := newSendAlertRouter(&stubAlertRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send-alert", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid request body", resp["error"])
}

func TestHealthWireShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(nil, nil, nil)
	r := gin.New()
	r.GET("/api/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Nothing is wired in this test, so every dependency reports down.
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "disconnected", resp.Services["postgres"])
	assert.Equal(t, "disconnected", resp.Services["rabbitmq"])
	assert.Equal(t, "disconnected", resp.Services["mailgun"])
}
