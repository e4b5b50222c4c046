package security

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

const userKey = "user"

// SessionStore keeps the logged-in user's projection in a gorilla session.
type SessionStore struct {
	store sessions.Store
	name  string
}

func NewSessionStore(store sessions.Store, name string) *SessionStore {
	return &SessionStore{store: store, name: name}
}

// session loads the request's session. A cookie that cannot be decoded, or
// whose server-side record is gone, yields a fresh session. Any other failure
// is a backend error wrapping apperr.ErrSessionStore.
func (s *SessionStore) session(r *http.Request) (*sessions.Session, error) {
	session, err := s.store.Get(r, s.name)
	if err != nil && !staleCookie(err) {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSessionStore, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %q unavailable", apperr.ErrSessionStore, s.name)
	}
	if err != nil {
		session.IsNew = true
	}
	return session, nil
}

// staleCookie reports whether err only means the cookie is unusable: tampered,
// expired, or pointing at a session file that no longer exists.
func staleCookie(err error) bool {
	var cookieErr securecookie.Error
	if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}

// Current returns the projection stored in the request's session.
func (s *SessionStore) Current(r *http.Request) (models.UserProjection, error) {
	session, err := s.session(r)
	if err != nil {
		return models.UserProjection{}, err
	}
	u, ok := session.Values[userKey].(models.UserProjection)
	if !ok {
		return models.UserProjection{}, apperr.ErrNotLoggedIn
	}
	return u, nil
}

// Establish stores u in the session and writes the session cookie.
func (s *SessionStore) Establish(w http.ResponseWriter, r *http.Request, u models.UserProjection) error {
	session, err := s.session(r)
	if err != nil {
		return err
	}
	session.Values[userKey] = u
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrSessionStore, err)
	}
	return nil
}

// Destroy clears the session server side (where the backend keeps state) and
// expires the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	session, err := s.session(r)
	if err != nil {
		return err
	}
	session.Options.MaxAge = -1
	if session.IsNew {
		// Nothing stored server side.
		http.SetCookie(w, sessions.NewCookie(s.name, "", session.Options))
		return nil
	}
	session.Values = map[interface{}]interface{}{}
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrSessionStore, err)
	}
	return nil
}

// StoreOptions selects and configures a session backend.
type StoreOptions struct {
	Backend  string // cookie, filesystem or redis
	Secret   []byte
	MaxAge   int
	Secure   bool
	Dir      string
	RedisURL string
}

// NewStore builds the configured gorilla session store. The returned close
// func releases backend resources and is never nil.
func NewStore(opts StoreOptions) (sessions.Store, func() error, error) {
	cookie := &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	noop := func() error { return nil }

	switch opts.Backend {
	case "", "cookie":
		store := sessions.NewCookieStore(opts.Secret)
		store.Options = cookie
		store.MaxAge(opts.MaxAge)
		return store, noop, nil
	case "filesystem":
		store := sessions.NewFilesystemStore(opts.Dir, opts.Secret)
		store.Options = cookie
		store.MaxAge(opts.MaxAge)
		return store, noop, nil
	case "redis":
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		store := NewRedisStore(client, cookie, opts.Secret)
		if opts.MaxAge <= 0 {
			store.DefaultTTL = 24 * time.Hour
		}
		return store, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", opts.Backend)
	}
}
