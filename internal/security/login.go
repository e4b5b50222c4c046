package security

import (
	"context"
	"log/slog"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

// Authorize reports whether a caller of rank current may use something that
// requires rank required.
func Authorize(current, required models.Role) bool {
	return current.AtLeast(required)
}

// UserFinder looks users up by email.
type UserFinder interface {
	FindUsersByEmail(ctx context.Context, email string) ([]models.User, error)
}

// Authenticate checks credentials and returns the session projection of the
// matching user. Exactly one user must match email.
func Authenticate(ctx context.Context, users UserFinder, verifier PasswordVerifier, email, password string) (models.UserProjection, error) {
	found, err := users.FindUsersByEmail(ctx, email)
	if err != nil {
		return models.UserProjection{}, apperr.Query("find user by email", err)
	}
	if len(found) != 1 {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "unknown_email", "matches", len(found))
		return models.UserProjection{}, apperr.ErrUnknownEmail
	}

	u := found[0]
	if !u.PasswordHash.Valid || !verifier.Verify(password, u.PasswordHash.String) {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password")
		return models.UserProjection{}, apperr.ErrWrongPassword
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", u.RoleID.String())
	return u.Projection(), nil
}
