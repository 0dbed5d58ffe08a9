package domain

import (
	"strings"
	"time"
)

const (
	MaxNameLength     = 50
	MaxBioLength      = 200
	MinPasswordLength = 6
)

// User represents an account able to authenticate and own tasks.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Bio          string    `json:"bio"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword is false for accounts created through an external identity provider.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// UserPatch carries the fields of a partial profile update; nil means unchanged.
type UserPatch struct {
	Name         *string
	Bio          *string
	Avatar       *string
	PasswordHash *string
}

// Apply copies the set fields of the patch onto the account.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
