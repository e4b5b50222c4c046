package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"volunteer-api/internal/apperr"
)

type DB struct {
	*sqlx.DB
}

// Conn is a single pooled connection owned by one request.
type Conn struct {
	*sqlx.Conn
}

// Pool hands out connections. Every successful Acquire must be matched by
// exactly one Release.
type Pool interface {
	Acquire(ctx context.Context) (*Conn, error)
	Release(conn *Conn) error
}

func Init(driver, dsn string) (*DB, error) {
	if _, ok := primaryKeys[driver]; !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) Acquire(ctx context.Context) (*Conn, error) {
	c, err := db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{c}, nil
}

func (db *DB) Release(conn *Conn) error {
	return conn.Close()
}

// WithConn runs fn on a connection borrowed from pool. The connection is
// released exactly once however fn returns, including by panic. A failed
// acquisition is reported as apperr.ErrPoolUnavailable and nothing is released.
func WithConn(ctx context.Context, pool Pool, fn func(*Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPoolUnavailable, err)
	}
	defer func() {
		if err := pool.Release(conn); err != nil {
			slog.Error("release_connection", "error", err)
		}
	}()
	return fn(conn)
}

var primaryKeys = map[string]string{
	"sqlite3":  "INTEGER PRIMARY KEY AUTOINCREMENT",
	"postgres": "SERIAL PRIMARY KEY",
}

func createTables(db *sqlx.DB) error {
	pk := primaryKeys[db.DriverName()]
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id ` + pk + `,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT,
			first_name TEXT,
			last_name TEXT,
			role_id INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id ` + pk + `,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			transport TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS shifts (
			shift_id ` + pk + `,
			event_id INTEGER NOT NULL REFERENCES events(event_id),
			shift_num INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			meals TEXT NOT NULL DEFAULT '',
			max_spots INTEGER NOT NULL,
			spots_taken INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			CHECK (spots_taken >= 0 AND spots_taken <= max_spots)
		)`,
		`CREATE TABLE IF NOT EXISTS mail_lists (
			mail_list_id ` + pk + `,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS user_mail_lists (
			user_id INTEGER NOT NULL REFERENCES users(user_id),
			mail_list_id INTEGER NOT NULL REFERENCES mail_lists(mail_list_id),
			PRIMARY KEY (user_id, mail_list_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_event ON shifts(event_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}
