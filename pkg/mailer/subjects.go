package mailer

import "strings"

// SubjectForAlert maps an alert template name to the email subject line.
func SubjectForAlert(template string) string {
	switch strings.ToLower(template) {
	case "emergency":
		return "EMERGENCY ALERT from SafeSpace"
	case "text_threat":
		return "SafeSpace: potential threat detected in text"
	case "audio_detection":
		return "SafeSpace: concerning sounds detected"
	case "password_reset":
		return "Reset your SafeSpace password"
	default:
		return "SafeSpace Notification"
	}
}
