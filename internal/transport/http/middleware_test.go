package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
}

func TestRequestIDHonorsInbound(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "upstream-id", seen)
}

func TestClientMetadataPrefersForwardedFor(t *testing.T) {
	var ip, ua string
	handler := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:41234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 192.0.2.10")
	req.Header.Set("User-Agent", "simply-app/3.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.7", ip)
	assert.Equal(t, "simply-app/3.2", ua)
}

func TestClientMetadataFallsBackToPeerAddress(t *testing.T) {
	var ip string
	handler := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:41234"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.10", ip)
}
