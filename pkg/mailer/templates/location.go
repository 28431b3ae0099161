package templates

import (
	"fmt"
	htmpl "html/template"
	"strconv"
)

// FormatLocationLink builds a Google Maps link that opens with a marker.
// Returns "" when either coordinate is absent.
func FormatLocationLink(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(*lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(*lng, 'f', -1, 64) + "&z=15"
}

// LocationSection renders the location line of an alert email. The anchor
// is built here rather than in the template so the raw "&z=15" query
// survives attribute escaping. Missing coordinates render the literal
// "Not provided" placeholder.
func LocationSection(lat, lng *float64) htmpl.HTML {
	link := FormatLocationLink(lat, lng)
	if link == "" {
		return htmpl.HTML(`<p><strong>Location:</strong> Not provided</p>`)
	}
	return htmpl.HTML(fmt.Sprintf(
		`<p><strong>Location:</strong> <a href="%s" style="color: #3182ce;">View on Google Maps</a></p>`,
		link,
	))
}
