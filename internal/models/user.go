package models

import "time"

// User represents a registered account.
// Accounts are never deleted; deactivation moves them back to the pending role.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed
	RoleID       uint       `gorm:"index;not null" json:"role_id"`
	Role         Role       `gorm:"foreignKey:RoleID" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// RoleName returns the resolved role name, empty when Role was not preloaded.
func (u User) RoleName() RoleName {
	return u.Role.Name
}

// IsPending reports whether the account still waits for an active role.
func (u User) IsPending() bool {
	return u.Role.Name == RolePending
}
