package application

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safespace-app/safespace-api/internal/domain/entity"
	tpl "github.com/safespace-app/safespace-api/pkg/mailer/templates"
)

type fakeAlertRepo struct {
	byID   map[string]*entity.Alert
	nextID int
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{byID: map[string]*entity.Alert{}}
}

func (r *fakeAlertRepo) Create(a *entity.Alert) error {
	r.nextID++
	a.ID = "alert-" + strconv.Itoa(r.nextID)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.byID[a.ID] = a
	return nil
}

func (r *fakeAlertRepo) GetByID(id string) (*entity.Alert, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, errors.New("not found")
}

func (r *fakeAlertRepo) ListByUser(userID string, limit int) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) Resolve(id string) error {
	a, ok := r.byID[id]
	if !ok {
		return errors.New("not found")
	}
	a.IsResolved = true
	return nil
}

func newTestAlertService(alerts *fakeAlertRepo) *AlertService {
	return &AlertService{Alerts: alerts, Users: newFakeUserRepo()}
}

func TestDispatchMissingFields(t *testing.T) {
	svc := newTestAlertService(newFakeAlertRepo())

	for _, in := range []NotificationInput{
		{UserName: "Jamie"},
		{EmergencyContactEmail: "mom@example.com"},
		{},
	} {
		_, err := svc.Dispatch(context.Background(), in)
		fe, ok := AsFieldError(err)
		require.True(t, ok)
		assert.Equal(t, "Missing required fields: emergency contact email or user name", fe.Message)
	}
}

func TestDispatchRejectsBadContactEmail(t *testing.T) {
	svc := newTestAlertService(newFakeAlertRepo())
	_, err := svc.Dispatch(context.Background(), NotificationInput{
		UserName:              "Jamie",
		EmergencyContactEmail: "not-an-email",
	})
	fe, ok := AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "Please enter a valid email address", fe.Message)
}

func TestDispatchPersistsNewAlert(t *testing.T) {
	alerts := newFakeAlertRepo()
	svc := newTestAlertService(alerts)

	lat, lng := 40.0, -73.0
	data, err := svc.Dispatch(context.Background(), NotificationInput{
		UserID:                "user-1",
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
		AlertType:             "emergency",
		Latitude:              &lat,
		Longitude:             &lng,
	})
	require.NoError(t, err)

	assert.Equal(t, "alert-1", data["alert_id"])
	// No publisher wired in this test; nothing was queued.
	assert.Equal(t, false, data["queued"])

	stored, err := alerts.GetByID("alert-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AlertEmergency, stored.AlertType)
	assert.Equal(t, "user-1", stored.UserID)
}

func TestDispatchFailsWhenMailEnabledWithoutPublisher(t *testing.T) {
	alerts := newFakeAlertRepo()
	svc := newTestAlertService(alerts)
	svc.MailEnabled = true // publisher stayed nil: queue was down at startup

	_, err := svc.Dispatch(context.Background(), NotificationInput{
		UserID:                "user-1",
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
		AlertType:             "emergency",
	})
	assert.ErrorIs(t, err, ErrDeliveryUnavailable)

	// The alert row is still persisted for the record.
	_, gerr := alerts.GetByID("alert-1")
	assert.NoError(t, gerr)
}

func TestDispatchKeepsExistingAlertID(t *testing.T) {
	alerts := newFakeAlertRepo()
	svc := newTestAlertService(alerts)

	data, err := svc.Dispatch(context.Background(), NotificationInput{
		UserID:                "user-1",
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
		AlertType:             "text_threat",
		AlertID:               "existing-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-9", data["alert_id"])
	assert.Empty(t, alerts.byID, "no duplicate alert row for a referenced alert")
}

func TestTemplateFor(t *testing.T) {
	assert.Equal(t, tpl.EmergencyAlert, templateFor("emergency"))
	assert.Equal(t, tpl.TextThreat, templateFor("text_threat"))
	assert.Equal(t, tpl.AudioDetection, templateFor("audio_detection"))
	// Unknown kinds still notify via the emergency skeleton.
	assert.Equal(t, tpl.EmergencyAlert, templateFor("future_kind"))
}

func TestResolveChecksOwnership(t *testing.T) {
	alerts := newFakeAlertRepo()
	svc := newTestAlertService(alerts)

	a := &entity.Alert{UserID: "user-1", AlertType: entity.AlertEmergency}
	require.NoError(t, alerts.Create(a))

	_, err := svc.Resolve(context.Background(), "someone-else", a.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	resolved, err := svc.Resolve(context.Background(), "user-1", a.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
}
