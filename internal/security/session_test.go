package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// roundTrip writes a session with fn and returns the cookie it set.
func roundTrip(t *testing.T, fn func(w http.ResponseWriter, r *http.Request) error, cookies ...*http.Cookie) *http.Cookie {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	require.NoError(t, fn(w, r))
	res := w.Result()
	require.Len(t, res.Cookies(), 1)
	return res.Cookies()[0]
}

func current(s *SessionStore, cookies ...*http.Cookie) (models.UserProjection, error) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return s.Current(r)
}

// exercise logs a user in and out and returns the cookie issued at login.
func exercise(t *testing.T, s *SessionStore) *http.Cookie {
	u := models.UserProjection{UserID: 7, FirstName: "Grace", LastName: "Hopper", RoleID: models.RoleOrganizer}

	_, err := current(s)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)

	cookie := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Establish(w, r, u)
	})
	assert.True(t, cookie.HttpOnly)

	got, err := current(s, cookie)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	expired := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Destroy(w, r)
	}, cookie)
	assert.Less(t, expired.MaxAge, 0)

	_, err = current(s, expired)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)
	return cookie
}

func TestCookieSessions(t *testing.T) {
	store, closeFn, err := NewStore(StoreOptions{Backend: "cookie", Secret: testSecret, MaxAge: 3600})
	require.NoError(t, err)
	defer closeFn()
	exercise(t, NewSessionStore(store, "volunteer"))
}

func TestFilesystemSessions(t *testing.T) {
	store, closeFn, err := NewStore(StoreOptions{Backend: "filesystem", Secret: testSecret, MaxAge: 3600, Dir: t.TempDir()})
	require.NoError(t, err)
	defer closeFn()
	s := NewSessionStore(store, "volunteer")
	old := exercise(t, s)

	// The session file is gone, so the login cookie no longer identifies anyone.
	_, err = current(s, old)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)
}

func TestRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := NewStore(StoreOptions{Backend: "redis", Secret: testSecret, MaxAge: 3600, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer closeFn()
	s := NewSessionStore(store, "volunteer")

	old := exercise(t, s)
	_, err = current(s, old)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)

	cookie := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Establish(w, r, models.UserProjection{UserID: 9})
	})
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, 3600, int(mr.TTL(keys[0]).Seconds()))

	// Dropping the server-side record logs the user out even with a valid cookie.
	mr.FlushAll()
	_, err = current(s, cookie)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)
}

func TestTamperedCookieIsNotLoggedIn(t *testing.T) {
	store, _, err := NewStore(StoreOptions{Secret: testSecret, MaxAge: 3600})
	require.NoError(t, err)
	s := NewSessionStore(store, "volunteer")

	cookie := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Establish(w, r, models.UserProjection{UserID: 1, RoleID: models.RoleVolunteer})
	})
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"
	_, err = current(s, cookie)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)
}

func TestUnknownBackend(t *testing.T) {
	_, closeFn, err := NewStore(StoreOptions{Backend: "memcached", Secret: testSecret})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestRedisOutageIsReported(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := NewStore(StoreOptions{Backend: "redis", Secret: testSecret, MaxAge: 3600, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer closeFn()
	s := NewSessionStore(store, "volunteer")

	cookie := roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Establish(w, r, models.UserProjection{UserID: 9, RoleID: models.RoleExecutive})
	})
	require.Len(t, mr.Keys(), 1)

	mr.SetError("ERR backend unavailable")

	_, err = current(s, cookie)
	assert.ErrorIs(t, err, apperr.ErrSessionStore)
	assert.NotErrorIs(t, err, apperr.ErrNotLoggedIn)

	r := httptest.NewRequest(http.MethodGet, "/api/user/logout", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	err = s.Destroy(w, r)
	assert.ErrorIs(t, err, apperr.ErrSessionStore)
	assert.Empty(t, w.Result().Cookies())

	r = httptest.NewRequest(http.MethodPost, "/api/user/login", nil)
	err = s.Establish(httptest.NewRecorder(), r, models.UserProjection{UserID: 10})
	assert.ErrorIs(t, err, apperr.ErrSessionStore)

	mr.SetError("")

	// The failed logout left the record in place, and reported it.
	require.Len(t, mr.Keys(), 1)
	got, err := current(s, cookie)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.UserID)

	roundTrip(t, func(w http.ResponseWriter, r *http.Request) error {
		return s.Destroy(w, r)
	}, cookie)
	assert.Empty(t, mr.Keys())
	_, err = current(s, cookie)
	assert.ErrorIs(t, err, apperr.ErrNotLoggedIn)
}
