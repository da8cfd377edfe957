package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Signals is the fixed set of device characteristics a client reports at
// login. Any field may be absent; absent signals are omitted from the
// fingerprint rather than substituted so partial reports still hash stably.
type Signals struct {
	UserAgent        string `json:"user_agent,omitempty"`
	Platform         string `json:"platform,omitempty"`
	OSVersion        string `json:"os_version,omitempty"`
	Brand            string `json:"brand,omitempty"`
	Model            string `json:"model,omitempty"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	Language         string `json:"language,omitempty"`
	AppVersion       string `json:"app_version,omitempty"`
	IsEmulator       bool   `json:"is_emulator,omitempty"`
	IsRooted         bool   `json:"is_rooted,omitempty"`
}

// Fingerprint hashes the signal set into a stable 64-char hex string.
// The field order is fixed; changing it changes every fingerprint, so it
// never changes. AppVersion is deliberately excluded: app updates must not
// re-register a device.
func Fingerprint(signals Signals) string {
	pairs := []struct{ key, value string }{
		{"platform", normalizedPlatform(signals)},
		{"os", signals.OSVersion},
		{"brand", signals.Brand},
		{"model", signals.Model},
		{"screen", signals.ScreenResolution},
		{"tz", signals.Timezone},
		{"lang", signals.Language},
		{"browser", browserFamily(signals.UserAgent)},
	}

	var b strings.Builder
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(strings.ToLower(p.value))
		b.WriteByte('|')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// normalizedPlatform prefers the explicit platform signal and falls back to
// user-agent OS detection for web clients.
func normalizedPlatform(signals Signals) string {
	if signals.Platform != "" {
		return strings.ToLower(signals.Platform)
	}
	if signals.UserAgent == "" {
		return ""
	}
	ua := useragent.New(signals.UserAgent)
	return strings.ToLower(ua.Platform())
}

// browserFamily extracts the browser name without its version so minor
// browser updates keep the fingerprint stable.
func browserFamily(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	return name
}

// DisplayName renders a human-readable device label for notifications,
// e.g. "Chrome on Mac OS X" or "Samsung SM-G991B".
func DisplayName(signals Signals) string {
	if signals.Brand != "" || signals.Model != "" {
		return strings.TrimSpace(signals.Brand + " " + signals.Model)
	}
	if signals.UserAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(signals.UserAgent)
	name, _ := ua.Browser()
	os := ua.OS()
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	}
	return "Unknown Device"
}
