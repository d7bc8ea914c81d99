package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for _, client := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.limiter(client)
	}
	assert.Equal(t, 3, l.Len())

	clock = clock.Add(limiterIdleTTL / 2)
	l.limiter("10.0.0.1")
	assert.Equal(t, 3, l.Len(), "nothing is idle long enough yet")

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	l.limiter("10.0.0.4")
	assert.Equal(t, 2, l.Len(), "only the recently seen client and the new one remain")

	// A returning client starts with a fresh bucket.
	clock = clock.Add(2 * limiterIdleTTL)
	assert.True(t, l.limiter("10.0.0.2").Allow())
	assert.Equal(t, 1, l.Len())
}

func TestRateLimiter_KeepsBucketWhileActive(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.limiter("10.0.0.1").Allow())
	clock = clock.Add(time.Minute)
	assert.False(t, l.limiter("10.0.0.1").Allow())
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		key  string
		sent string
		want int
	}{
		{"no key configured", "", "", http.StatusNoContent},
		{"matching key", "s3cret", "s3cret", http.StatusNoContent},
		{"missing key", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "s3creT", http.StatusUnauthorized},
		{"prefix of key", "s3cret", "s3c", http.StatusUnauthorized},
		{"key with suffix", "s3cret", "s3cret!", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/catalogs", nil)
			if tt.sent != "" {
				req.Header.Set("X-API-Key", tt.sent)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.key)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
