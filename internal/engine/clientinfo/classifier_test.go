package clientinfo

import (
	"net/http/httptest"
	"reflect"
	"testing"

	"knowyourclient/internal/pkg/parser"
)

const chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36"

func TestClassify_ChromeOnWindows(t *testing.T) {
	in := Input{
		UserAgent:     chromeWindows,
		AppVersion:    "5.0 (Windows NT 10.0; Win64; x64)",
		Platform:      "Win32",
		Vendor:        "Google Inc.",
		CookieEnabled: true,
		Language:      "en-US",
		OnLine:        true,
		DoNotTrack:    DoNotTrackSources{Navigator: "1"},
		ScreenWidth:   1920,
		ScreenHeight:  1080,
		ColorDepth:    24,
		PixelRatio:    1.25,
	}

	got := Classify(in)
	want := Snapshot{
		Browser:          parser.Browser{Name: "Chrome", Version: "120.0.6099.109"},
		OS:               parser.OS{Name: "Windows", Version: "10"},
		Device:           parser.Device{Type: "Desktop", Model: "Windows"},
		Engine:           parser.Engine{Name: "WebKit", Version: "537.36"},
		UserAgent:        chromeWindows,
		AppVersion:       "5.0 (Windows NT 10.0; Win64; x64)",
		Platform:         "Win32",
		Vendor:           "Google Inc.",
		CookieEnabled:    true,
		Language:         "en-US",
		OnLine:           true,
		DoNotTrack:       DoNotTrackEnabled,
		ScreenResolution: "1920x1080",
		ColorDepth:       24,
		PixelRatio:       1.25,
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestClassify_UnknownEverywhere(t *testing.T) {
	for _, ua := range []string{"", "qwerty"} {
		got := Classify(Input{UserAgent: ua})

		if got.Browser.Name != "Unknown Browser" || got.Browser.Version != "Unknown" {
			t.Errorf("%q: unexpected browser %+v", ua, got.Browser)
		}
		if got.OS.Name != "Unknown OS" || got.OS.Version != "Unknown" {
			t.Errorf("%q: unexpected os %+v", ua, got.OS)
		}
		if got.Device.Type != "Unknown" || got.Device.Model != "Unknown" {
			t.Errorf("%q: unexpected device %+v", ua, got.Device)
		}
		if got.Engine.Name != "Unknown Engine" || got.Engine.Version != "Unknown" {
			t.Errorf("%q: unexpected engine %+v", ua, got.Engine)
		}
	}
}

func TestClassify_AmbientDefaults(t *testing.T) {
	got := Classify(Input{UserLanguage: "de-DE"})

	if got.Language != "de-DE" {
		t.Errorf("Expected legacy user language fallback, got %q", got.Language)
	}
	if got.PixelRatio != 1 {
		t.Errorf("Expected pixel ratio 1, got %v", got.PixelRatio)
	}
	if got.ScreenResolution != "0x0" {
		t.Errorf("Expected 0x0, got %s", got.ScreenResolution)
	}
	if got.DoNotTrack != DoNotTrackUnspecified {
		t.Errorf("Expected unspecified, got %s", got.DoNotTrack)
	}
}

func TestClassify_LanguagePrecedence(t *testing.T) {
	got := Classify(Input{Language: "fr", UserLanguage: "de-DE"})
	if got.Language != "fr" {
		t.Errorf("Expected fr, got %q", got.Language)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	in := Input{UserAgent: chromeWindows, ScreenWidth: 800, ScreenHeight: 600}
	if a, b := Classify(in), Classify(in); !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical snapshots, got %+v and %+v", a, b)
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	rules := parser.MustNew(parser.Tables{
		Browsers: []parser.RuleSpec{{Pattern: `toybrowser/([0-9.]+)`, Name: "Toy"}},
	})
	c := NewClassifier(rules)

	got := c.Classify(Input{UserAgent: "ToyBrowser/2.1 " + chromeWindows})
	if got.Browser.Name != "Toy" || got.Browser.Version != "2.1" {
		t.Errorf("Expected Toy 2.1, got %+v", got.Browser)
	}
	if got.OS.Name != "Unknown OS" {
		t.Errorf("Expected custom tables without os rules to yield Unknown OS, got %s", got.OS.Name)
	}
}

func TestClassify_AndroidMobileVsTablet(t *testing.T) {
	phone := "Mozilla/5.0 (Linux; Android 14; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	tablet := "Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	if d := Classify(Input{UserAgent: phone}).Device; d != (parser.Device{Type: "Mobile", Model: "Android"}) {
		t.Errorf("phone: got %+v", d)
	}
	if d := Classify(Input{UserAgent: tablet}).Device; d != (parser.Device{Type: "Tablet", Model: "Android"}) {
		t.Errorf("tablet: got %+v", d)
	}
}

func TestResolveDoNotTrack(t *testing.T) {
	tests := []struct {
		name     string
		sources  DoNotTrackSources
		expected DoNotTrack
	}{
		{"none", DoNotTrackSources{}, DoNotTrackUnspecified},
		{"navigator enabled", DoNotTrackSources{Navigator: "1"}, DoNotTrackEnabled},
		{"navigator disabled", DoNotTrackSources{Navigator: "0"}, DoNotTrackDisabled},
		{"legacy firefox yes", DoNotTrackSources{Navigator: "yes"}, DoNotTrackEnabled},
		{"window fallback", DoNotTrackSources{Window: "1"}, DoNotTrackEnabled},
		{"ms fallback", DoNotTrackSources{MS: "0"}, DoNotTrackDisabled},
		{"navigator wins over window", DoNotTrackSources{Navigator: "0", Window: "1"}, DoNotTrackDisabled},
		{"unspecified string is a value", DoNotTrackSources{Navigator: "unspecified", Window: "1"}, DoNotTrackUnspecified},
		{"blank skipped", DoNotTrackSources{Navigator: "  ", MS: "1"}, DoNotTrackEnabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDoNotTrack(tt.sources); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/classify", nil)
	req.Header.Set("User-Agent", chromeWindows)
	req.Header.Set("Accept-Language", "en-GB;q=0.9, en;q=0.8")
	req.Header.Set("DNT", "1")
	req.Header.Set("Sec-GPC", "1")
	req.Header.Set("Sec-CH-UA-Platform", `"Windows"`)
	req.Header.Set("Sec-CH-Viewport-Width", "1280")
	req.Header.Set("Sec-CH-Viewport-Height", "720")
	req.Header.Set("Sec-CH-DPR", "2")
	req.Header.Set("Cookie", "session=abc")

	in := FromRequest(req)

	if in.UserAgent != chromeWindows {
		t.Errorf("Expected user agent to be copied, got %q", in.UserAgent)
	}
	if in.Language != "en-GB" {
		t.Errorf("Expected en-GB, got %q", in.Language)
	}
	if in.Platform != "Windows" {
		t.Errorf("Expected unquoted platform, got %q", in.Platform)
	}
	if in.DoNotTrack.Navigator != "1" || in.DoNotTrack.Window != "1" {
		t.Errorf("Unexpected do-not-track sources %+v", in.DoNotTrack)
	}
	if in.ScreenWidth != 1280 || in.ScreenHeight != 720 {
		t.Errorf("Expected 1280x720, got %dx%d", in.ScreenWidth, in.ScreenHeight)
	}
	if in.PixelRatio != 2 {
		t.Errorf("Expected pixel ratio 2, got %v", in.PixelRatio)
	}
	if !in.CookieEnabled || !in.OnLine {
		t.Errorf("Expected cookie and online flags, got %+v", in)
	}
}

func TestFromRequest_BareRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "*")
	req.Header.Set("Sec-CH-Viewport-Width", "-5")
	req.Header.Set("Sec-CH-DPR", "abc")

	in := FromRequest(req)
	if in.Language != "" || in.ScreenWidth != 0 || in.PixelRatio != 0 || in.CookieEnabled {
		t.Errorf("Expected empty ambient fields, got %+v", in)
	}
}
