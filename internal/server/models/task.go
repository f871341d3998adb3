package models

import "time"

// Task is a to-do item exclusively owned by OwnerID. UpdatedAt is nil until
// the first mutation and always ≥ CreatedAt afterwards. AttachmentKey, when
// set, points at an object in the attachment bucket.
type Task struct {
	ID            int64
	OwnerID       int64
	Title         string
	Description   string
	IsCompleted   bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	AttachmentKey *string
}

// Dashboard holds per-owner aggregate counts. Completed+Pending == Total.
type Dashboard struct {
	Total     int
	Completed int
	Pending   int
}
