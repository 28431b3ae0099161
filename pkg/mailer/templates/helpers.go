package templates

import (
	"strings"
	"time"
)

// Threat level accent palette.
const (
	ThreatColorLow    = "#3182ce" // blue
	ThreatColorMedium = "#dd6b20" // orange
	ThreatColorHigh   = "#e53e3e" // red
)

// ThreatColorFor maps a threat level to its accent color. Unknown or
// empty levels render as medium so a bad producer cannot paint a red
// banner by accident.
func ThreatColorFor(level string) string {
	switch strings.ToLower(level) {
	case "low":
		return ThreatColorLow
	case "high":
		return ThreatColorHigh
	default:
		return ThreatColorMedium
	}
}

// FormatAlertTypeLabel turns "text_threat" into "Text Threat".
func FormatAlertTypeLabel(alertType string) string {
	words := strings.Split(strings.ReplaceAll(alertType, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Option pattern
type Option func(*AlertEmailData)

func WithContent(content string) Option {
	return func(d *AlertEmailData) { d.Content = strings.TrimSpace(content) }
}

func WithCoordinates(lat, lng *float64) Option {
	return func(d *AlertEmailData) { d.LocationSection = LocationSection(lat, lng) }
}

func WithThreatLevel(level string) Option {
	return func(d *AlertEmailData) {
		if level == "" {
			level = "medium"
		}
		d.ThreatLevel = strings.ToLower(level)
		d.ThreatColor = ThreatColorFor(level)
	}
}

func WithTime(t time.Time) Option {
	return func(d *AlertEmailData) {
		d.TimeAt = t.UTC()
		d.Time = d.TimeAt.Format("Jan 2, 2006 3:04:05 PM MST")
	}
}

func WithResetURL(url string) Option {
	return func(d *AlertEmailData) { d.ResetURL = url }
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *AlertEmailData) {
		d.ExpiresAtText = time.Now().Add(dur).UTC().Format("Jan 2, 2006 3:04 PM MST")
	}
}

// NewAlertEmailData fills the common fields, then applies Options.
// Every template interpolates the user name and a human-readable
// timestamp; missing optional sections are omitted, not rendered empty.
func NewAlertEmailData(alertType, userName string, opts ...Option) AlertEmailData {
	d := AlertEmailData{
		UserName:       userName,
		AlertTypeLabel: FormatAlertTypeLabel(alertType),
		// No coordinates until WithCoordinates runs.
		LocationSection: LocationSection(nil, nil),
	}
	WithTime(time.Now())(&d)
	WithThreatLevel("medium")(&d)
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
