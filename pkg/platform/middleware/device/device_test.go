package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"iphone", iphoneUA, ClassMobile},
		{"android", androidUA, ClassMobile},
		{"desktop chrome", desktopUA, ClassDesktop},
		{"crawler", botUA, ClassBot},
		{"empty", "", ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ua))
		})
	}
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = Class(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/r?id=c1", nil)
	req.Header.Set("User-Agent", iphoneUA)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, ClassMobile, got)
}
