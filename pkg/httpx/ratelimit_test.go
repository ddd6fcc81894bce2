package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks after the burst is spent", func(t *testing.T) {
		cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
		handler := Chain(okHandler(), RateLimitByIP(cfg))

		for i := range 2 {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		handler := Chain(okHandler(), RateLimitByIP(cfg))

		first := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(first, req)
		require.Equal(t, http.StatusOK, first.Code)

		blocked := httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:9999" // same IP, different port
		handler.ServeHTTP(blocked, req)
		assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

		other := httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(other, req)
		assert.Equal(t, http.StatusOK, other.Code)
	})

	t.Run("composite key separates usernames behind one IP", func(t *testing.T) {
		cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		handler := Chain(okHandler(), RateLimitByIPAndFormField(cfg, "username"))

		post := func(username string) *httptest.ResponseRecorder {
			form := url.Values{"username": {username}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		require.Equal(t, http.StatusOK, post("alice").Code)
		assert.Equal(t, http.StatusTooManyRequests, post("alice").Code)
		assert.Equal(t, http.StatusOK, post("bob").Code)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", IPKeyExtractor(req))

	// X-Forwarded-For wins and only the first hop counts.
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
	assert.Equal(t, "198.51.100.7", IPKeyExtractor(req))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(okHandler(), mw("outer"), mw("inner"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}
