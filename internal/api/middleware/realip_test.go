package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seenAddr(t *testing.T, trusted []string, remote string, headers map[string]string) string {
	t.Helper()
	prefixes, err := ParseTrustedProxies(trusted)
	require.NoError(t, err)

	var got string
	h := RealIP(prefixes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestRealIP_IgnoresHeadersWithoutTrustedProxies(t *testing.T) {
	got := seenAddr(t, nil, "203.0.113.7:4711", map[string]string{
		"X-Forwarded-For": "10.0.0.1",
		"X-Real-IP":       "10.0.0.2",
	})
	assert.Equal(t, "203.0.113.7:4711", got)
}

func TestRealIP_IgnoresHeadersFromUntrustedPeer(t *testing.T) {
	got := seenAddr(t, []string{"10.1.0.0/16"}, "203.0.113.7:4711", map[string]string{
		"X-Forwarded-For": "198.51.100.1",
	})
	assert.Equal(t, "203.0.113.7:4711", got)
}

func TestRealIP_TrustedProxyForwardedFor(t *testing.T) {
	got := seenAddr(t, []string{"10.1.0.0/16"}, "10.1.2.3:4711", map[string]string{
		"X-Forwarded-For": "198.51.100.1",
	})
	assert.Equal(t, "198.51.100.1", got)
}

func TestRealIP_SkipsTrustedHopsFromTheRight(t *testing.T) {
	got := seenAddr(t, []string{"10.1.0.0/16"}, "10.1.2.3:4711", map[string]string{
		"X-Forwarded-For": "1.2.3.4, 198.51.100.1, 10.1.9.9",
	})
	assert.Equal(t, "198.51.100.1", got, "left-most entries are client controlled")
}

func TestRealIP_TrustedProxyRealIPFallback(t *testing.T) {
	got := seenAddr(t, []string{"10.1.2.3"}, "10.1.2.3:4711", map[string]string{
		"X-Real-IP": "198.51.100.1",
	})
	assert.Equal(t, "198.51.100.1", got)
}

func TestRealIP_MalformedForwardedForKeepsPeer(t *testing.T) {
	got := seenAddr(t, []string{"10.1.0.0/16"}, "10.1.2.3:4711", map[string]string{
		"X-Forwarded-For": "not-an-ip",
	})
	assert.Equal(t, "10.1.2.3:4711", got)
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.10 ", "", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.10/32"),
		netip.MustParsePrefix("::1/128"),
	}, prefixes)

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestRealIP_RotatedForwardedForSharesBucket(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1})
	defer rl.Stop()
	h := RealIP(nil)(limitedHandler(rl))

	codes := map[int]int{}
	for i := range 5 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4711"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[rec.Code]++
	}

	assert.Equal(t, map[int]int{http.StatusOK: 1, http.StatusTooManyRequests: 4}, codes)
	assert.Equal(t, 1, rl.Len())
}
