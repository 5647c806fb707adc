// Package clientinfo turns what a browser reports about itself into a Snapshot:
// browser, OS, device and engine classification plus the ambient flags.
package clientinfo

import "knowyourclient/internal/pkg/parser"

// Classifier is a stateless value; the zero value uses the default rule tables.
type Classifier struct {
	rules *parser.Classifier
}

func NewClassifier(rules *parser.Classifier) Classifier {
	return Classifier{rules: rules}
}

// Classify never fails. Unmatched categories carry the parser's Unknown sentinels.
func (c Classifier) Classify(in Input) Snapshot {
	rules := c.rules
	if rules == nil {
		rules = parser.Default()
	}
	res := rules.Parse(in.UserAgent)

	language := in.Language
	if language == "" {
		language = in.UserLanguage
	}

	pixelRatio := in.PixelRatio
	if pixelRatio <= 0 {
		pixelRatio = 1
	}

	return Snapshot{
		Browser:          res.Browser,
		OS:               res.OS,
		Device:           res.Device,
		Engine:           res.Engine,
		UserAgent:        in.UserAgent,
		AppVersion:       in.AppVersion,
		Platform:         in.Platform,
		Vendor:           in.Vendor,
		CookieEnabled:    in.CookieEnabled,
		Language:         language,
		OnLine:           in.OnLine,
		JavaEnabled:      in.JavaEnabled,
		DoNotTrack:       ResolveDoNotTrack(in.DoNotTrack),
		ScreenResolution: screenResolution(in.ScreenWidth, in.ScreenHeight),
		ColorDepth:       in.ColorDepth,
		PixelRatio:       pixelRatio,
	}
}

// Classify uses the default rule tables.
func Classify(in Input) Snapshot {
	return Classifier{}.Classify(in)
}
