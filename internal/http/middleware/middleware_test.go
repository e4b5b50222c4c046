package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

type fixedSession struct {
	user models.UserProjection
	err  error
}

func (f fixedSession) Current(r *http.Request) (models.UserProjection, error) {
	return f.user, f.err
}

func TestRequestLoggerSetsID(t *testing.T) {
	var seen string
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", seen)
}

func TestRateLimiterPerIP(t *testing.T) {
	h := NewRateLimiter(2).Limit(ok)
	send := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/user/login", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5002"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000"))
}

func TestRateLimiterSweepsIdleVisitorsPeriodically(t *testing.T) {
	rl := NewRateLimiter(5)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	rl.now = func() time.Time { return clock }
	at := func(offset time.Duration, ip string) {
		clock = start.Add(offset)
		require.True(t, rl.Allow(ip))
	}

	at(0, "10.0.0.1")
	at(time.Minute, "10.0.0.2")
	// First sweep after the interval drops .1 (idle 5m30s) and keeps .2.
	at(5*time.Minute+30*time.Second, "10.0.0.3")
	assert.Len(t, rl.visitors, 2)
	assert.NotContains(t, rl.visitors, "10.0.0.1")

	// .2 is now idle past the ttl but survives until the next sweep is due.
	at(7*time.Minute, "10.0.0.4")
	assert.Len(t, rl.visitors, 3)
	assert.Contains(t, rl.visitors, "10.0.0.2")

	at(11*time.Minute, "10.0.0.5")
	assert.Len(t, rl.visitors, 2)
	assert.Contains(t, rl.visitors, "10.0.0.4")
	assert.Contains(t, rl.visitors, "10.0.0.5")
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		session fixedSession
		want    int
	}{
		{"no session", fixedSession{err: apperr.ErrNotLoggedIn}, http.StatusUnauthorized},
		{"session backend down", fixedSession{err: fmt.Errorf("%w: dial tcp: refused", apperr.ErrSessionStore)}, http.StatusInternalServerError},
		{"volunteer", fixedSession{user: models.UserProjection{UserID: 1, RoleID: models.RoleVolunteer}}, http.StatusForbidden},
		{"organizer", fixedSession{user: models.UserProjection{UserID: 2, RoleID: models.RoleOrganizer}}, http.StatusForbidden},
		{"executive", fixedSession{user: models.UserProjection{UserID: 3, RoleID: models.RoleExecutive}}, http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			called := false
			h := RequireRole(c.session, models.RoleExecutive)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				u, found := User(r.Context())
				require.True(t, found)
				assert.Equal(t, c.session.user, u)
				w.WriteHeader(http.StatusNoContent)
			}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/mailing-list", nil))
			assert.Equal(t, c.want, w.Code)
			assert.Equal(t, c.want == http.StatusNoContent, called)
		})
	}
}

func TestCSRFExemptsJSON(t *testing.T) {
	h := CSRF([]byte("0123456789abcdef0123456789abcdef"), false)(ok)

	r := httptest.NewRequest(http.MethodPost, "/api/mailing-list/1/signup", strings.NewReader(`{"email":"a@b.c"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/mailing-list/1/signup", strings.NewReader("email=a@b.c"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid CSRF token")
}
