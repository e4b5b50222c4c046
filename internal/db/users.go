package db

import (
	"context"

	"volunteer-api/internal/models"
)

// FindUsersByEmail returns at most two users for email so callers can tell
// "exactly one" apart from "ambiguous".
func (c *Conn) FindUsersByEmail(ctx context.Context, email string) ([]models.User, error) {
	query := "SELECT user_id, email, password_hash, first_name, last_name, role_id FROM users WHERE email = ? LIMIT 2"

	var users []models.User
	if err := c.SelectContext(ctx, &users, c.Rebind(query), email); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Conn) CreateUser(ctx context.Context, u models.User) (int64, error) {
	query := `INSERT INTO users (email, password_hash, first_name, last_name, role_id)
		VALUES (?, ?, ?, ?, ?) RETURNING user_id`

	var id int64
	err := c.GetContext(ctx, &id, c.Rebind(query), u.Email, u.PasswordHash, u.FirstName, u.LastName, int(u.RoleID))
	return id, err
}

// CountUsersAtLeast counts users whose rank is at least role.
func (c *Conn) CountUsersAtLeast(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := c.GetContext(ctx, &n, c.Rebind("SELECT COUNT(*) FROM users WHERE role_id >= ?"), int(role))
	return n, err
}
