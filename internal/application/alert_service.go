package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/safespace-app/safespace-api/internal/domain/entity"
	repo "github.com/safespace-app/safespace-api/internal/domain/repository"
	"github.com/safespace-app/safespace-api/pkg/helpers"
	"github.com/safespace-app/safespace-api/pkg/mailer"
	tpl "github.com/safespace-app/safespace-api/pkg/mailer/templates"
)

// AlertService persists alerts, enqueues the notification emails, and
// maintains the alert search index.
type AlertService struct {
	Alerts        repo.AlertRepository
	Users         repo.UserRepository
	Pub           *helpers.RabbitPublisher
	Logger        *logrus.Logger
	ES            *elasticsearch.Client
	ESAlertsIndex string
	MailEnabled   bool
}

// NotificationInput is the transient dispatch payload; constructed per
// request, never persisted as-is.
type NotificationInput struct {
	UserID                string   `json:"user_id"`
	UserEmail             string   `json:"user_email"`
	UserName              string   `json:"user_name"`
	EmergencyContactEmail string   `json:"emergency_contact_email"`
	AlertType             string   `json:"alert_type"`
	Content               string   `json:"content,omitempty"`
	ThreatLevel           string   `json:"threat_level,omitempty"`
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	AlertID               string   `json:"alert_id,omitempty"`
}

// Dispatch validates the notification, persists the alert when the
// request does not reference an existing one, and enqueues the email.
// Validation failures happen before any I/O.
func (s *AlertService) Dispatch(ctx context.Context, in NotificationInput) (map[string]any, error) {
	if strings.TrimSpace(in.EmergencyContactEmail) == "" || strings.TrimSpace(in.UserName) == "" {
		return nil, &FieldError{
			Field:   "emergency_contact_email",
			Message: "Missing required fields: emergency contact email or user name",
		}
	}
	if !ValidEmail(in.EmergencyContactEmail) {
		return nil, &FieldError{Field: "emergency_contact_email", Message: "Please enter a valid email address"}
	}

	alertID := in.AlertID
	if alertID == "" && in.UserID != "" {
		a := &entity.Alert{
			UserID:    in.UserID,
			AlertType: entity.AlertType(in.AlertType),
			Content:   optional(in.Content),
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
		}
		if err := s.Alerts.Create(a); err != nil {
			return nil, err
		}
		alertID = a.ID
		s.indexAlert(ctx, a)
	}

	queued := false
	if s.MailEnabled && s.Pub == nil {
		// RabbitMQ was down at startup. Persist what we can, but the
		// caller must see the failure, not a silent drop.
		if s.Logger != nil {
			s.Logger.WithField("alert_id", alertID).Error("mail enabled but no queue publisher; alert email cannot be sent")
		}
		return nil, ErrDeliveryUnavailable
	}
	if s.MailEnabled && s.Pub != nil {
		data := tpl.NewAlertEmailData(in.AlertType, in.UserName,
			tpl.WithContent(in.Content),
			tpl.WithCoordinates(in.Latitude, in.Longitude),
			tpl.WithThreatLevel(string(entity.NormalizeThreatLevel(in.ThreatLevel))),
			tpl.WithTime(time.Now()),
		)
		job := mailer.EmailJob{
			To:       in.EmergencyContactEmail,
			Template: templateFor(in.AlertType),
			Data:     tpl.ToMap(data),
		}
		if err := s.Pub.PublishJSON(ctx, job); err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("alert_id", alertID).Error("failed to enqueue alert email")
			}
			return nil, err
		}
		queued = true
	}

	return map[string]any{"alert_id": alertID, "queued": queued}, nil
}

// templateFor picks the email template; unknown kinds fall back to the
// emergency skeleton so an extended alert_type still notifies.
func templateFor(alertType string) string {
	kind := entity.AlertType(alertType)
	if !kind.Valid() {
		return tpl.EmergencyAlert
	}
	switch kind {
	case entity.AlertTextThreat:
		return tpl.TextThreat
	case entity.AlertAudioDetection:
		return tpl.AudioDetection
	default:
		return tpl.EmergencyAlert
	}
}

func (s *AlertService) List(userID string, limit int) ([]*entity.Alert, error) {
	return s.Alerts.ListByUser(userID, limit)
}

// Resolve marks an alert resolved. Only the owning user may resolve it.
func (s *AlertService) Resolve(ctx context.Context, userID, alertID string) (*entity.Alert, error) {
	a, err := s.Alerts.GetByID(alertID)
	if err != nil || a == nil || a.UserID != userID {
		return nil, ErrUserNotFound
	}
	if err := s.Alerts.Resolve(alertID); err != nil {
		return nil, err
	}
	a.IsResolved = true
	a.UpdatedAt = time.Now()
	s.indexAlert(ctx, a)
	return a, nil
}

func (s *AlertService) indexAlert(ctx context.Context, a *entity.Alert) {
	if s.ES == nil || s.ESAlertsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          a.ID,
		"user_id":     a.UserID,
		"alert_type":  a.AlertType,
		"content":     a.Content,
		"is_resolved": a.IsResolved,
		"created_at":  a.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  a.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESAlertsIndex, DocumentID: a.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("alert_id", a.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("alert_id", a.ID).Warn("es index response error")
	}
}

// SearchAlerts performs a match search on alert content, scoped to the
// requesting user.
func (s *AlertService) SearchAlerts(ctx context.Context, userID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESAlertsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"match": map[string]any{"content": q}},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESAlertsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
