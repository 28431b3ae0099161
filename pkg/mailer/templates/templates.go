package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Alert template names; each maps to <name>.html.tmpl.
const (
	EmergencyAlert = "emergency"
	TextThreat     = "text_threat"
	AudioDetection = "audio_detection"
	PasswordReset  = "password_reset"
)

// AlertEmailData defines the fields the alert templates interpolate.
// LocationSection is pre-built trusted HTML so the maps link survives
// verbatim (href escaping would mangle the query string).
type AlertEmailData struct {
	UserName        string     `json:"UserName"`
	AlertTypeLabel  string     `json:"AlertTypeLabel"`
	Time            string     `json:"Time"`
	TimeAt          time.Time  `json:"TimeAt"`
	Content         string     `json:"Content"`
	ThreatLevel     string     `json:"ThreatLevel"`
	ThreatColor     string     `json:"ThreatColor"`
	LocationSection htmpl.HTML `json:"LocationSection"`

	// Password reset only
	ResetURL      string `json:"ResetURL,omitempty"`
	ExpiresAtText string `json:"ExpiresAtText,omitempty"`
}

// ToMap converts AlertEmailData to a map[string]any for EmailJob.Data
func ToMap(d AlertEmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// FromMap rebuilds AlertEmailData from EmailJob.Data
func FromMap(m map[string]any) AlertEmailData {
	b, _ := json.Marshal(m)
	var d AlertEmailData
	_ = json.Unmarshal(b, &d)
	return d
}

var htmlFuncMap = htmpl.FuncMap{
	"upper": strings.ToUpper,
}

// RenderHTML renders <name>.html.tmpl with the given data. Pure string
// construction; no side effects.
func RenderHTML(name string, data AlertEmailData) (string, error) {
	filename := name + ".html.tmpl"
	tpl, err := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", filename, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}
