package security

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"volunteer-api/internal/db"
	"volunteer-api/internal/models"
)

var ErrWeakPassword = errors.New("seed password must be at least 8 characters")

// EnsureExecutive creates an executive account when no user of that rank
// exists yet. It reports whether an account was created.
func EnsureExecutive(ctx context.Context, pool db.Pool, email, password, firstName, lastName string) (bool, error) {
	if email == "" {
		return false, nil
	}
	if !ValidatePassword(password) {
		return false, ErrWeakPassword
	}

	created := false
	err := db.WithConn(ctx, pool, func(conn *db.Conn) error {
		n, err := conn.CountUsersAtLeast(ctx, models.RoleExecutive)
		if err != nil || n > 0 {
			return err
		}
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		id, err := conn.CreateUser(ctx, models.User{
			Email:        email,
			PasswordHash: sql.NullString{String: hash, Valid: true},
			FirstName:    sql.NullString{String: firstName, Valid: firstName != ""},
			LastName:     sql.NullString{String: lastName, Valid: lastName != ""},
			RoleID:       models.RoleExecutive,
		})
		if err != nil {
			return err
		}
		created = true
		slog.Info("auth_event", "event", "executive_seeded", "user_id", id, "email", email)
		return nil
	})
	return created, err
}
