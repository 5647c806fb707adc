// Package parser classifies user agent strings with ordered rule tables.
//
// Each category (browser, operating system, device, rendering engine) is an
// independent scan over the lowercased user agent: rules are tried in table
// order and the first match wins. When nothing matches, the category's
// "Unknown" sentinel is returned, so parsing never fails.
package parser

import "strings"

type Browser struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type OS struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Device struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

type Engine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Result is the outcome of all four scans over one user agent.
type Result struct {
	Browser Browser `json:"browser"`
	OS      OS      `json:"os"`
	Device  Device  `json:"device"`
	Engine  Engine  `json:"engine"`
}

// Classifier holds compiled rule tables. It is read-only after construction
// and safe for concurrent use.
type Classifier struct {
	browsers []rule
	systems  []rule
	devices  []rule
	engines  []rule
}

// New compiles the given tables. An invalid pattern is reported as an error.
func New(t Tables) (*Classifier, error) {
	var (
		c   Classifier
		err error
	)
	if c.browsers, err = compileRules("browser", t.Browsers, false); err != nil {
		return nil, err
	}
	if c.systems, err = compileRules("os", t.OperatingSystems, true); err != nil {
		return nil, err
	}
	if c.devices, err = compileRules("device", t.Devices, false); err != nil {
		return nil, err
	}
	if c.engines, err = compileRules("engine", t.Engines, false); err != nil {
		return nil, err
	}
	return &c, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew(t Tables) *Classifier {
	c, err := New(t)
	if err != nil {
		panic("parser: " + err.Error())
	}
	return c
}

var defaultClassifier = MustNew(DefaultTables())

// Default returns the classifier built from DefaultTables.
func Default() *Classifier { return defaultClassifier }

// ParseUserAgent classifies ua with the default tables.
func ParseUserAgent(ua string) Result {
	return defaultClassifier.Parse(ua)
}

func (c *Classifier) Parse(ua string) Result {
	lower := strings.ToLower(ua)
	return Result{
		Browser: c.browser(lower),
		OS:      c.os(lower),
		Device:  c.device(lower),
		Engine:  c.engine(lower),
	}
}

func (c *Classifier) Browser(ua string) Browser { return c.browser(strings.ToLower(ua)) }

func (c *Classifier) OS(ua string) OS { return c.os(strings.ToLower(ua)) }

func (c *Classifier) Device(ua string) Device { return c.device(strings.ToLower(ua)) }

func (c *Classifier) Engine(ua string) Engine { return c.engine(strings.ToLower(ua)) }

func (c *Classifier) browser(ua string) Browser {
	for _, r := range c.browsers {
		if m, ok := r.match(ua); ok {
			return Browser{Name: r.name, Version: captured(m)}
		}
	}
	return Browser{Name: UnknownBrowser, Version: UnknownVersion}
}

func (c *Classifier) os(ua string) OS {
	for _, r := range c.systems {
		if _, ok := r.match(ua); !ok {
			continue
		}

		version := r.version
		if version == "" && r.versionPattern != nil {
			if m := r.versionPattern.FindStringSubmatch(ua); len(m) > 1 {
				version = normalizeVersion(m[1])
			}
		}
		if version == "" {
			version = UnknownVersion
		}
		return OS{Name: r.name, Version: version}
	}
	return OS{Name: UnknownOS, Version: UnknownVersion}
}

func (c *Classifier) device(ua string) Device {
	for _, r := range c.devices {
		if _, ok := r.match(ua); ok {
			return Device{Type: r.name, Model: r.model}
		}
	}
	return Device{Type: UnknownDevice, Model: UnknownDevice}
}

func (c *Classifier) engine(ua string) Engine {
	for _, r := range c.engines {
		if m, ok := r.match(ua); ok {
			return Engine{Name: r.name, Version: captured(m)}
		}
	}
	return Engine{Name: UnknownEngine, Version: UnknownVersion}
}

// captured returns the first capture group, or the unknown version when the
// pattern has none or it did not participate in the match.
func captured(m []string) string {
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return UnknownVersion
}

// normalizeVersion turns "10_15_7" into "10.15.7" and drops trailing separators.
func normalizeVersion(v string) string {
	v = strings.ReplaceAll(v, "_", ".")
	return strings.TrimRight(v, ".")
}
