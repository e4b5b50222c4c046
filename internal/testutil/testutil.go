package testutil

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/db"
	"volunteer-api/internal/models"
)

// OpenTestDB opens a fresh SQLite database in a temp dir with the schema applied.
func OpenTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Init("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CountingPool wraps a pool and tracks outstanding leases. Releasing a
// connection twice, or one it never handed out, is recorded as a violation.
type CountingPool struct {
	Inner db.Pool

	mu          sync.Mutex
	FailAcquire error
	acquired    int
	outstanding map[*db.Conn]bool
	violations  []error
}

func NewCountingPool(inner db.Pool) *CountingPool {
	return &CountingPool{Inner: inner, outstanding: map[*db.Conn]bool{}}
}

func (p *CountingPool) Acquire(ctx context.Context) (*db.Conn, error) {
	p.mu.Lock()
	fail := p.FailAcquire
	p.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	c, err := p.Inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.acquired++
	p.outstanding[c] = true
	p.mu.Unlock()
	return c, nil
}

func (p *CountingPool) Release(c *db.Conn) error {
	p.mu.Lock()
	if !p.outstanding[c] {
		p.violations = append(p.violations, apperr.ErrConnectionLeak)
		p.mu.Unlock()
		return apperr.ErrConnectionLeak
	}
	delete(p.outstanding, c)
	p.mu.Unlock()
	return p.Inner.Release(c)
}

// Outstanding is the number of connections acquired but not yet released.
func (p *CountingPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outstanding)
}

// Acquired is the total number of successful acquisitions.
func (p *CountingPool) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

func (p *CountingPool) Violations() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.violations...)
}

// AssertBalanced fails the test when leases are outstanding or were misused.
func (p *CountingPool) AssertBalanced(t *testing.T) {
	t.Helper()
	if n := p.Outstanding(); n != 0 {
		t.Fatalf("%d connection(s) not released", n)
	}
	if err := p.Violations(); err != nil {
		t.Fatalf("pool violations: %v", err)
	}
}

// WithConn runs fn on a connection from d and fails the test on error.
func WithConn(t *testing.T, d *db.DB, fn func(*db.Conn) error) {
	t.Helper()
	if err := db.WithConn(context.Background(), d, fn); err != nil {
		t.Fatalf("with conn: %v", err)
	}
}

// CreateUser inserts a user with a low-cost bcrypt hash of password (empty
// password stores NULL) and returns its id.
func CreateUser(t *testing.T, d *db.DB, email, password, first, last string, role models.Role) int64 {
	t.Helper()
	u := models.User{
		Email:     email,
		FirstName: nullString(first),
		LastName:  nullString(last),
		RoleID:    role,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = nullString(string(hash))
	}
	var id int64
	WithConn(t, d, func(c *db.Conn) error {
		var err error
		id, err = c.CreateUser(context.Background(), u)
		return err
	})
	return id
}

// CreateEvent inserts an event and its shifts (EventID is filled in).
func CreateEvent(t *testing.T, d *db.DB, e models.Event, shifts ...models.Shift) int64 {
	t.Helper()
	var id int64
	WithConn(t, d, func(c *db.Conn) error {
		var err error
		id, err = c.CreateEvent(context.Background(), e)
		if err != nil {
			return err
		}
		for _, s := range shifts {
			s.EventID = id
			if _, err := c.CreateShift(context.Background(), s); err != nil {
				return err
			}
		}
		return nil
	})
	return id
}

func CreateMailList(t *testing.T, d *db.DB, name, description string) int64 {
	t.Helper()
	var id int64
	WithConn(t, d, func(c *db.Conn) error {
		var err error
		id, err = c.CreateMailList(context.Background(), name, description)
		return err
	})
	return id
}

// Count runs a COUNT(*) style query and returns the result.
func Count(t *testing.T, d *db.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := d.Get(&n, d.Rebind(query), args...); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
