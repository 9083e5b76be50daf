package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleRider UserRole = "rider"
	RoleAdmin UserRole = "admin"
)

// DefaultPhoto is stored when an upsert arrives without a photo URL
const DefaultPhoto = "https://example.com/default-avatar.jpg"

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleRider, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"_id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Photo     string    `json:"photo" bson:"photo"`
	Role      UserRole  `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	LastLogin time.Time `json:"last_login" bson:"last_login"`
}

// UserUpsert carries the fields of a login/registration merge.
// Role and CreatedAt are only applied when the user does not exist yet.
type UserUpsert struct {
	Email string
	Name  string
	Photo string
	Role  UserRole
	Now   time.Time
}
