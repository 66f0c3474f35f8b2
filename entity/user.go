package entity

import (
	"net/http"
	"time"

	"invitetrack/lib/validate"
)

// APIRole controls access level on the HTTP surface.
type APIRole string

const (
	RoleReader APIRole = "reader" // leaderboard and stats queries
	RoleAdmin  APIRole = "admin"  // may trigger refreshes and create users
)

// User is an API consumer authenticated by bearer token.
// The token is generated server-side on creation and is the lookup key.
type User struct {
	Username     string    `json:"username" bson:"username" validate:"required"`
	Token        string    `json:"token,omitempty" bson:"token"`
	Role         APIRole   `json:"role" bson:"role" validate:"omitempty,oneof=reader admin"`
	RegisteredAt time.Time `json:"registered_at" bson:"registered_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
