package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	signals := Signals{
		Platform:         "android",
		OSVersion:        "14",
		Brand:            "Samsung",
		Model:            "SM-G991B",
		ScreenResolution: "1080x2400",
		Timezone:         "America/Argentina/Buenos_Aires",
		Language:         "es-AR",
	}

	first := Fingerprint(signals)
	second := Fingerprint(signals)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestFingerprint_CaseInsensitive(t *testing.T) {
	lower := Fingerprint(Signals{Platform: "android", Brand: "samsung"})
	upper := Fingerprint(Signals{Platform: "Android", Brand: "SAMSUNG"})

	assert.Equal(t, lower, upper)
}

func TestFingerprint_AbsentSignalsOmitted(t *testing.T) {
	partial := Fingerprint(Signals{Platform: "ios", Model: "iPhone15,2"})
	fuller := Fingerprint(Signals{Platform: "ios", Model: "iPhone15,2", Timezone: "UTC"})

	assert.NotEqual(t, partial, fuller)
	assert.NotEmpty(t, partial)
}

func TestFingerprint_AppVersionIgnored(t *testing.T) {
	v1 := Fingerprint(Signals{Platform: "android", Model: "Pixel 8", AppVersion: "3.1.0"})
	v2 := Fingerprint(Signals{Platform: "android", Model: "Pixel 8", AppVersion: "3.2.0"})

	assert.Equal(t, v1, v2)
}

func TestFingerprint_BrowserVersionIgnored(t *testing.T) {
	chrome120 := Fingerprint(Signals{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	})
	chrome121 := Fingerprint(Signals{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	})

	assert.Equal(t, chrome120, chrome121)
}

func TestFingerprint_PlatformFallsBackToUserAgent(t *testing.T) {
	fromUA := Fingerprint(Signals{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	})
	explicit := Fingerprint(Signals{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Platform:  "windows",
	})

	assert.NotEqual(t, fromUA, explicit)
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name    string
		signals Signals
		want    string
	}{
		{
			name:    "brand and model",
			signals: Signals{Brand: "Samsung", Model: "SM-G991B"},
			want:    "Samsung SM-G991B",
		},
		{
			name:    "model only",
			signals: Signals{Model: "iPhone15,2"},
			want:    "iPhone15,2",
		},
		{
			name: "browser on os",
			signals: Signals{
				UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			want: "Chrome on Intel Mac OS X 10_15_7",
		},
		{
			name:    "nothing reported",
			signals: Signals{},
			want:    "Unknown Device",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayName(tc.signals))
		})
	}
}
