package clientinfo

import (
	"net/http"
	"strconv"
	"strings"
)

// FromRequest reads an Input from the request headers, for callers that
// classify the requesting client itself rather than a posted record.
func FromRequest(r *http.Request) Input {
	h := r.Header
	in := Input{
		UserAgent:     r.UserAgent(),
		Platform:      unquote(h.Get("Sec-CH-UA-Platform")),
		CookieEnabled: h.Get("Cookie") != "",
		Language:      primaryLanguage(h.Get("Accept-Language")),
		OnLine:        true,
		DoNotTrack: DoNotTrackSources{
			Navigator: h.Get("DNT"),
		},
		ScreenWidth:  atoi(h.Get("Sec-CH-Viewport-Width")),
		ScreenHeight: atoi(h.Get("Sec-CH-Viewport-Height")),
	}

	// Global Privacy Control is the closest thing to window.doNotTrack on the wire.
	if h.Get("Sec-GPC") == "1" {
		in.DoNotTrack.Window = "1"
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(h.Get("Sec-CH-DPR")), 64); err == nil && v > 0 {
		in.PixelRatio = v
	}

	return in
}

// primaryLanguage returns the first tag of an Accept-Language value, ignoring
// quality weights.
func primaryLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return ""
	}
	return tag
}

func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"`)
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
