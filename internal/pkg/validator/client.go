package validator

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

const (
	MaxUserAgentLength = 2048
	maxScreenDimension = 32768
	maxColorDepth      = 64
	maxPixelRatio      = 16
)

// NormalizeLanguage canonicalizes a BCP 47 tag ("EN_us" -> "en-US"). An empty
// tag stays empty.
func NormalizeLanguage(tag string) (string, error) {
	if tag == "" {
		return "", nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return t.String(), nil
}

func ValidateUserAgent(ua string) error {
	if len(ua) > MaxUserAgentLength {
		return fmt.Errorf("user agent exceeds %d bytes", MaxUserAgentLength)
	}
	return nil
}

func ValidateScreen(width, height, colorDepth int, pixelRatio float64) error {
	if width < 0 || height < 0 || width > maxScreenDimension || height > maxScreenDimension {
		return errors.New("screen dimensions out of range")
	}
	if colorDepth < 0 || colorDepth > maxColorDepth {
		return errors.New("color depth out of range")
	}
	if pixelRatio < 0 || pixelRatio > maxPixelRatio {
		return errors.New("pixel ratio out of range")
	}
	return nil
}
