package entity

import (
	"time"
)

// Identity is the credential record issued by the auth layer.
// Its ID is immutable once issued; email uniqueness is enforced by the
// identities table.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// User is the profile row that accompanies an Identity. Optional fields
// are pointers so "absent" and "empty" stay distinguishable.
type User struct {
	ID                    string
	Email                 string
	FullName              *string
	AvatarURL             *string
	Phone                 *string
	EmergencyContactEmail *string
	UserType              *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DisplayName returns the profile name, falling back to a generic
// placeholder so a missing profile never breaks the dashboard shell.
func (u *User) DisplayName() string {
	if u == nil || u.FullName == nil || *u.FullName == "" {
		return "User"
	}
	return *u.FullName
}

// NeedsName reports whether the profile-completion prompt should open.
func (u *User) NeedsName() bool {
	return u == nil || u.FullName == nil || *u.FullName == ""
}
