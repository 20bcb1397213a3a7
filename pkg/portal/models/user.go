package models

import (
	"fmt"
	"time"
)

// UserRole represents the role of a user in the portal.
type UserRole string

const (
	// RoleAdmin is an administrator with full access to every folder.
	RoleAdmin UserRole = "admin"
	// RoleManager can manage folders and files where granted permission.
	RoleManager UserRole = "manager"
	// RoleBasic is a read-mostly user; access still requires folder permission.
	RoleBasic UserRole = "basic"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleBasic
}

// User represents a portal principal.
//
// Administrators bypass folder ACL checks entirely. Every other role must
// appear in a folder's ACL to see or mutate it.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"default:basic;size:50" json:"role"` // admin, manager, basic
	Enabled      bool       `gorm:"default:true" json:"enabled"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// IsAdmin checks if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// GetRole returns the user's role as a UserRole type.
func (u *User) GetRole() UserRole {
	return UserRole(u.Role)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}
