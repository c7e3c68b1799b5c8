// Package uaparse is a pure, deterministic user-agent and referrer parser.
// Grounded on the teacher's analytics service
// (services/analytics-svc/domain/service.go), which already wires
// github.com/ua-parser/uap-go for device/browser/OS classification, rather
// than the ad hoc strings.Contains sniffing in
// services/redirect-svc/domain/resolver.go.
package uaparse

import (
	"strings"

	"github.com/ua-parser/uap-go/uaparser"

	"github.com/go-systems-lab/shortlink/internal/model"
)

// Parser wraps the uap-go regex database. Parsing is pure: the same input
// always yields byte-identical output.
type Parser struct {
	p *uaparser.Parser
}

// New loads the bundled regexes.yaml database, the way the teacher's
// NewAnalyticsService does via uaparser.NewFromSaved().
func New() *Parser {
	return &Parser{p: uaparser.NewFromSaved()}
}

// Result is the parsed shape spec §4.F names.
type Result struct {
	DeviceType     model.DeviceType
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	IsBot          bool
}

var botMarkers = []string{"bot", "spider", "crawl", "slurp", "bingpreview", "facebookexternalhit"}

// ParseUA classifies a raw user-agent string.
func (p *Parser) ParseUA(raw string) Result {
	client := p.p.Parse(raw)
	lower := strings.ToLower(raw)

	isBot := false
	for _, marker := range botMarkers {
		if strings.Contains(lower, marker) {
			isBot = true
			break
		}
	}

	return Result{
		DeviceType:     deviceType(client, lower),
		BrowserName:    client.UserAgent.Family,
		BrowserVersion: versionString(client.UserAgent.Major, client.UserAgent.Minor, client.UserAgent.Patch),
		OSName:         client.Os.Family,
		OSVersion:      versionString(client.Os.Major, client.Os.Minor, client.Os.Patch),
		IsBot:          isBot,
	}
}

// deviceType trusts uap-go's own Device.Family classification first — it
// already disambiguates "iPhone"/"Generic Smartphone"/"iPad" from parsing
// the UA's device token, not just substring matches on the family name —
// and falls back to raw substring sniffing only when uap-go reports no
// device (Family == "" or "Other"), which is common for desktop UAs since
// uap-go's device regexes target mobile/tablet hardware.
func deviceType(client *uaparser.Client, lowerUA string) model.DeviceType {
	family := strings.ToLower(client.Device.Family)
	if family != "" && family != "other" {
		switch {
		case strings.Contains(family, "tablet") || strings.Contains(family, "ipad"):
			return model.DeviceTablet
		default:
			return model.DeviceMobile
		}
	}

	switch {
	case strings.Contains(lowerUA, "tablet") || strings.Contains(lowerUA, "ipad"):
		return model.DeviceTablet
	case strings.Contains(lowerUA, "mobile") || strings.Contains(lowerUA, "android") || strings.Contains(lowerUA, "iphone"):
		return model.DeviceMobile
	case strings.Contains(lowerUA, "windows") || strings.Contains(lowerUA, "macintosh") ||
		strings.Contains(lowerUA, "mac os x") || strings.Contains(lowerUA, "linux") || strings.Contains(lowerUA, "x11"):
		return model.DeviceDesktop
	default:
		return model.DeviceUnknown
	}
}

func versionString(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p == "" {
			break
		}
		nonEmpty = append(nonEmpty, p)
	}
	return strings.Join(nonEmpty, ".")
}

// ExtractDomain strips a URL's scheme and returns everything before the
// first "/". Empty input yields empty output.
func ExtractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	s := rawURL
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}
	return s
}
