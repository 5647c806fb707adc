package clientinfo

import "strings"

// Input is what the host environment reports about the browser. It mirrors the
// navigator, window and screen properties a collector script can read.
type Input struct {
	UserAgent     string            `json:"user_agent"`
	AppVersion    string            `json:"app_version"`
	Platform      string            `json:"platform"`
	Vendor        string            `json:"vendor"`
	CookieEnabled bool              `json:"cookie_enabled"`
	Language      string            `json:"language"`
	UserLanguage  string            `json:"user_language"` // legacy IE navigator.userLanguage
	OnLine        bool              `json:"online"`
	JavaEnabled   bool              `json:"java_enabled"`
	DoNotTrack    DoNotTrackSources `json:"do_not_track"`
	ScreenWidth   int               `json:"screen_width"`
	ScreenHeight  int               `json:"screen_height"`
	ColorDepth    int               `json:"color_depth"`
	PixelRatio    float64           `json:"pixel_ratio"`
}

// DoNotTrackSources carries the raw values of the places a browser may expose
// its do-not-track preference.
type DoNotTrackSources struct {
	Navigator string `json:"navigator,omitempty"` // navigator.doNotTrack
	Window    string `json:"window,omitempty"`    // window.doNotTrack
	MS        string `json:"ms,omitempty"`        // navigator.msDoNotTrack
}

type DoNotTrack string

const (
	DoNotTrackUnspecified DoNotTrack = "unspecified"
	DoNotTrackEnabled     DoNotTrack = "enabled"
	DoNotTrackDisabled    DoNotTrack = "disabled"
)

// ResolveDoNotTrack uses the first non-empty source in the order navigator,
// window, ms. Later sources are not consulted even when they disagree.
func ResolveDoNotTrack(s DoNotTrackSources) DoNotTrack {
	var raw string
	for _, v := range []string{s.Navigator, s.Window, s.MS} {
		if v = strings.TrimSpace(v); v != "" {
			raw = v
			break
		}
	}

	switch strings.ToLower(raw) {
	case "1", "yes":
		return DoNotTrackEnabled
	case "0", "no":
		return DoNotTrackDisabled
	default:
		return DoNotTrackUnspecified
	}
}
