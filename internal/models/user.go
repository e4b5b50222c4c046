package models

import (
	"database/sql"
	"encoding/gob"
)

// Role is the ordinal rank used for authorization. Higher ranks include the
// privileges of every lower rank.
type Role int

// Stored role_id values are volunteer (1) and executive (3 and up). Guest and
// organizer are local names for the ranks below and between them.
const (
	RoleGuest     Role = 0
	RoleVolunteer Role = 1
	RoleOrganizer Role = 2
	RoleExecutive Role = 3
)

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func (r Role) String() string {
	switch {
	case r >= RoleExecutive:
		return "executive"
	case r == RoleOrganizer:
		return "organizer"
	case r == RoleVolunteer:
		return "volunteer"
	default:
		return "guest"
	}
}

type User struct {
	ID           int64          `db:"user_id" json:"user_id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash sql.NullString `db:"password_hash" json:"-"` // Don't expose in JSON
	FirstName    sql.NullString `db:"first_name" json:"-"`
	LastName     sql.NullString `db:"last_name" json:"-"`
	RoleID       Role           `db:"role_id" json:"role_id"`
}

// Projection returns the subset of the user that may be kept in a session.
func (u User) Projection() UserProjection {
	return UserProjection{
		UserID:    u.ID,
		FirstName: u.FirstName.String,
		LastName:  u.LastName.String,
		RoleID:    u.RoleID,
	}
}

// UserProjection is the session-side view of a user. It never carries the
// password hash.
type UserProjection struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    Role   `json:"role_id"`
}

func init() {
	// Session values are gob encoded by the cookie, filesystem and redis stores.
	gob.Register(UserProjection{})
}
