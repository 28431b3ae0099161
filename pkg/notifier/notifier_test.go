package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlertMissingFieldsSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)

	res := c.SendAlert(context.Background(), Request{UserName: "Jamie"})
	assert.False(t, res.Success)
	assert.Equal(t, "Missing required fields: emergency contact email or user name", res.Message)

	res = c.SendAlert(context.Background(), Request{EmergencyContactEmail: "mom@example.com"})
	assert.False(t, res.Success)
	assert.Equal(t, "Missing required fields: emergency contact email or user name", res.Message)

	res = c.SendAlert(context.Background(), Request{EmergencyContactEmail: "mom@example.com", UserName: "   "})
	assert.False(t, res.Success)
	assert.Equal(t, "Missing required fields: emergency contact email or user name", res.Message)

	assert.Equal(t, 0, calls, "validation failures must not reach the network")
}

func TestSendAlertSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/send-alert", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"alert_id": "a1", "queued": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.SendAlert(context.Background(), Request{
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
		AlertType:             "emergency",
	})
	assert.True(t, res.Success)
	assert.Equal(t, "a1", res.Data["alert_id"])
	assert.Equal(t, "mom@example.com", got.EmergencyContactEmail)
}

func TestSendAlertServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.SendAlert(context.Background(), Request{
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
	})
	assert.False(t, res.Success)
	assert.Equal(t, "invalid request body", res.Message)
}

func TestSendAlertNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, nil)
	res := c.SendAlert(context.Background(), Request{
		UserName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "notification service unreachable")
}

func TestHealthy(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want bool
	}{
		{
			name: "provider connected",
			body: map[string]any{"status": "healthy", "services": map[string]string{"mailgun": "connected"}},
			want: true,
		},
		{
			name: "provider disconnected",
			body: map[string]any{"status": "healthy", "services": map[string]string{"mailgun": "disconnected"}},
			want: false,
		},
		{
			name: "degraded status",
			body: map[string]any{"status": "degraded", "services": map[string]string{"mailgun": "connected"}},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/health", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, nil)
			assert.Equal(t, tc.want, c.Healthy(context.Background()))
		})
	}
}

func TestHealthyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil)
	assert.False(t, c.Healthy(context.Background()))
}
