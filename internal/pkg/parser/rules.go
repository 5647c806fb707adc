package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleSpec describes one entry of a classification table. Patterns are matched
// against the lowercased user agent.
type RuleSpec struct {
	Pattern string
	// Exclude rejects a match of Pattern when it matches the text that follows it.
	Exclude string
	Name    string
	Model   string // device tables only
	Version string // fixed version, wins over VersionPattern
	// VersionPattern captures the version in group 1. OS rules without one use
	// "<lowercased name>\s+([\d._]+)".
	VersionPattern string
}

// Tables holds the ordered rule lists. Order is significant: the first matching
// rule wins.
type Tables struct {
	Browsers         []RuleSpec
	OperatingSystems []RuleSpec
	Devices          []RuleSpec
	Engines          []RuleSpec
}

type rule struct {
	pattern        *regexp.Regexp
	exclude        *regexp.Regexp
	versionPattern *regexp.Regexp
	name           string
	model          string
	version        string
}

// match returns the submatches of the first acceptable occurrence of the pattern.
func (r rule) match(ua string) ([]string, bool) {
	if r.exclude == nil {
		m := r.pattern.FindStringSubmatch(ua)
		return m, m != nil
	}

	for _, loc := range r.pattern.FindAllStringSubmatchIndex(ua, -1) {
		if r.exclude.MatchString(ua[loc[1]:]) {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = ua[loc[2*i]:loc[2*i+1]]
			}
		}
		return m, true
	}
	return nil, false
}

func compileRules(table string, specs []RuleSpec, defaultVersion bool) ([]rule, error) {
	rules := make([]rule, 0, len(specs))
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%s rule %d: empty name", table, i)
		}

		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s rule %d (%s): %w", table, i, spec.Name, err)
		}
		r := rule{
			pattern: pattern,
			name:    spec.Name,
			model:   spec.Model,
			version: spec.Version,
		}

		if spec.Exclude != "" {
			if r.exclude, err = regexp.Compile(spec.Exclude); err != nil {
				return nil, fmt.Errorf("%s rule %d (%s) exclude: %w", table, i, spec.Name, err)
			}
		}

		versionPattern := spec.VersionPattern
		if versionPattern == "" && defaultVersion {
			versionPattern = regexp.QuoteMeta(strings.ToLower(spec.Name)) + `\s+([\d._]+)`
		}
		if versionPattern != "" {
			if r.versionPattern, err = regexp.Compile(versionPattern); err != nil {
				return nil, fmt.Errorf("%s rule %d (%s) version: %w", table, i, spec.Name, err)
			}
		}

		rules = append(rules, r)
	}
	return rules, nil
}

// DefaultTables returns the built-in rule tables.
func DefaultTables() Tables {
	return Tables{
		// Vendor tokens go before chrome/ and safari/ since most of these
		// browsers embed both.
		Browsers: []RuleSpec{
			{Pattern: `edg(?:e)?/([0-9.]+)|edge`, Name: BrowserEdge},
			{Pattern: `opr/([0-9.]+)`, Name: BrowserOpera},
			{Pattern: `opera.+version/([0-9.]+)`, Name: BrowserOpera},
			{Pattern: `yabrowser/([0-9.]+)`, Name: BrowserYandex},
			{Pattern: `samsungbrowser/([0-9.]+)`, Name: BrowserSamsung},
			{Pattern: `ucbrowser/([0-9.]+)`, Name: BrowserUC},
			{Pattern: `vivaldi/([0-9.]+)`, Name: BrowserVivaldi},
			{Pattern: `brave/([0-9.]+)`, Name: BrowserBrave},
			{Pattern: `silk/([0-9.]+)`, Name: BrowserSilk},
			{Pattern: `sailfish(?:browser)?/([0-9.]+)`, Name: BrowserSailfish},
			{Pattern: `seamonkey/([0-9.]+)`, Name: BrowserSeaMonkey},
			{Pattern: `chrome/([0-9.]+)`, Name: BrowserChrome},
			{Pattern: `version/([0-9.]+).*safari`, Name: BrowserSafari},
			{Pattern: `firefox/([0-9.]+)`, Name: BrowserFirefox},
			{Pattern: `msie ([0-9.]+)`, Name: BrowserIE},
			{Pattern: `trident.+rv:([0-9.]+)`, Name: BrowserIE},
		},
		OperatingSystems: []RuleSpec{
			{Pattern: `windows phone`, Name: OSWindowsPhone, VersionPattern: `windows phone(?: os)?\s+([\d.]+)`},
			{Pattern: `windows nt 10\.0`, Name: OSWindows, Version: "10"},
			{Pattern: `windows nt 6\.3`, Name: OSWindows, Version: "8.1"},
			{Pattern: `windows nt 6\.2`, Name: OSWindows, Version: "8"},
			{Pattern: `windows nt 6\.1`, Name: OSWindows, Version: "7"},
			{Pattern: `windows nt 6\.0`, Name: OSWindows, Version: "Vista"},
			{Pattern: `windows nt 5\.2`, Name: OSWindows, Version: "Server 2003/XP x64"},
			{Pattern: `windows nt 5\.1`, Name: OSWindows, Version: "XP"},
			{Pattern: `windows xp`, Name: OSWindows, Version: "XP"},
			{Pattern: `windows nt 5\.0`, Name: OSWindows, Version: "2000"},
			{Pattern: `windows me`, Name: OSWindows, Version: "ME"},
			{Pattern: `win98`, Name: OSWindows, Version: "98"},
			{Pattern: `win95`, Name: OSWindows, Version: "95"},
			{Pattern: `win16`, Name: OSWindows, Version: "3.11"},
			{Pattern: `iphone`, Name: OSiOS, VersionPattern: `iphone os\s+([\d._]+)`},
			{Pattern: `ipod`, Name: OSiOS, VersionPattern: `iphone os\s+([\d._]+)`},
			{Pattern: `ipad`, Name: OSiPadOS, VersionPattern: `cpu os\s+([\d._]+)`},
			{Pattern: `macintosh|mac os x`, Name: OSMacOS, VersionPattern: `mac os x\s+([\d._]+)`},
			{Pattern: `mac_powerpc`, Name: OSMacOS, Version: "9"},
			{Pattern: `android`, Name: OSAndroid},
			{Pattern: `\bcros\b`, Name: OSChromeOS, VersionPattern: `\bcros\s+\S+\s+([\d.]+)`},
			{Pattern: `web[o0]s`, Name: OSWebOS, VersionPattern: `web[o0]s/([\d._]+)`},
			{Pattern: `ubuntu`, Name: OSUbuntu, VersionPattern: `ubuntu[/\s]+([\d.]+)`},
			{Pattern: `linux`, Name: OSLinux},
			{Pattern: `blackberry`, Name: OSBlackBerry, VersionPattern: `blackberry\d*/([\d.]+)`},
			{Pattern: `freebsd`, Name: OSFreeBSD},
			{Pattern: `openbsd`, Name: OSOpenBSD},
			{Pattern: `netbsd`, Name: OSNetBSD},
		},
		// "android" with a later "mobile" token on the same line is a phone;
		// without it, a tablet.
		Devices: []RuleSpec{
			{Pattern: `iphone`, Name: DeviceTypeMobile, Model: "iPhone"},
			{Pattern: `ipod`, Name: DeviceTypeMobile, Model: "iPod"},
			{Pattern: `ipad`, Name: DeviceTypeTablet, Model: "iPad"},
			{Pattern: `android.*mobile`, Name: DeviceTypeMobile, Model: "Android"},
			{Pattern: `android`, Exclude: `^.*mobile`, Name: DeviceTypeTablet, Model: "Android"},
			{Pattern: `blackberry`, Name: DeviceTypeMobile, Model: "BlackBerry"},
			{Pattern: `windows phone`, Name: DeviceTypeMobile, Model: "Windows Phone"},
			{Pattern: `macintosh|mac os x`, Name: DeviceTypeDesktop, Model: "Mac"},
			{Pattern: `linux`, Name: DeviceTypeDesktop, Model: "Linux"},
			{Pattern: `windows nt`, Name: DeviceTypeDesktop, Model: "Windows"},
		},
		Engines: []RuleSpec{
			{Pattern: `webkit/([0-9.]+)`, Name: EngineWebKit},
			{Pattern: `gecko/([0-9.]+)`, Name: EngineGecko},
			{Pattern: `trident/([0-9.]+)`, Name: EngineTrident},
			{Pattern: `presto/([0-9.]+)`, Name: EnginePresto},
			{Pattern: `blink/([0-9.]+)`, Name: EngineBlink},
		},
	}
}
