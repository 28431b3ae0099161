package entity

import (
	"strings"
	"time"
)

type AlertType string

const (
	AlertEmergency      AlertType = "emergency"
	AlertTextThreat     AlertType = "text_threat"
	AlertAudioDetection AlertType = "audio_detection"
)

// Valid reports whether t is one of the known alert kinds.
func (t AlertType) Valid() bool {
	switch t {
	case AlertEmergency, AlertTextThreat, AlertAudioDetection:
		return true
	}
	return false
}

type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// NormalizeThreatLevel folds producer input to a known level. Unknown
// or empty input becomes medium so a bad producer cannot escalate to
// red by accident.
func NormalizeThreatLevel(s string) ThreatLevel {
	switch ThreatLevel(strings.ToLower(s)) {
	case ThreatLow:
		return ThreatLow
	case ThreatHigh:
		return ThreatHigh
	default:
		return ThreatMedium
	}
}

// Alert is created by a detector or a manual trigger. It is mutated only
// to set IsResolved and is never deleted in normal flow.
type Alert struct {
	ID         string
	UserID     string
	AlertType  AlertType
	Content    *string
	Latitude   *float64
	Longitude  *float64
	IsResolved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
