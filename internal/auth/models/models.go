package models

import "time"

// User is the authenticated principal. Email is the canonical key and is
// matched case-sensitively.
type User struct {
	ID             int64      `json:"id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	AccountNumber  *string    `json:"account_number,omitempty"`
	AccountType    string     `json:"account_type,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsVerified     bool       `json:"is_verified"`
	IsAdmin        bool       `json:"is_admin"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// UserUpdate is the allow-listed mutable field set for admin updates.
// Nil fields are left untouched; anything outside this struct cannot be
// patched through the API.
type UserUpdate struct {
	FullName      *string `json:"full_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	IsAdmin       *bool   `json:"is_admin,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	AccountType   *string `json:"account_type,omitempty"`
}

// Apply copies the populated fields onto the user record.
func (u *UserUpdate) Apply(user *User) {
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.IsActive != nil {
		user.IsActive = *u.IsActive
	}
	if u.IsAdmin != nil {
		user.IsAdmin = *u.IsAdmin
	}
	if u.AccountNumber != nil {
		user.AccountNumber = u.AccountNumber
	}
	if u.AccountType != nil {
		user.AccountType = *u.AccountType
	}
}
