// Package models defines the persisted records shared by repositories and
// services.
package models

import "time"

// User is a credential record. Email is stored lowercase; PasswordHash is an
// opaque bcrypt hash that must only be checked through auth.VerifyPassword.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	FullName       string
	EmailConfirmed bool
	CreatedAt      time.Time
}
