package domain

import "time"

// Session is the result of a successful login: a signed assertion plus the account it names.
// Nothing about it is stored server-side.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
