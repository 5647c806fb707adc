package clientinfo

import (
	"fmt"

	"knowyourclient/internal/pkg/parser"
)

// Snapshot is the classification of one Input together with its pass-through
// ambient fields.
type Snapshot struct {
	Browser parser.Browser `json:"browser"`
	OS      parser.OS      `json:"os"`
	Device  parser.Device  `json:"device"`
	Engine  parser.Engine  `json:"engine"`

	UserAgent        string     `json:"user_agent"`
	AppVersion       string     `json:"app_version"`
	Platform         string     `json:"platform"`
	Vendor           string     `json:"vendor"`
	CookieEnabled    bool       `json:"cookie_enabled"`
	Language         string     `json:"language"`
	OnLine           bool       `json:"online"`
	JavaEnabled      bool       `json:"java_enabled"`
	DoNotTrack       DoNotTrack `json:"do_not_track"`
	ScreenResolution string     `json:"screen_resolution"`
	ColorDepth       int        `json:"color_depth"`
	PixelRatio       float64    `json:"pixel_ratio"`
}

func screenResolution(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
