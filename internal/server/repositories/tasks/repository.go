// Package tasks persists to-do items. Every lookup that names a task id also
// names the owner, so a task existing under a different owner is
// indistinguishable from one that does not exist at all.
package tasks

import (
	"context"

	"github.com/onoff/todo-api/internal/server/models"
)

type Repository interface {
	// Insert stores a new task and returns it with the assigned id.
	Insert(ctx context.Context, task *models.Task) (*models.Task, error)

	// FindByIDAndOwner returns the owned task or common.ErrNotFound.
	FindByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Task, error)

	// FindAllByOwner returns all tasks of the owner, most recently created
	// first, ties in insertion order.
	FindAllByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)

	// Update overwrites title, description, completion and updated_at of the
	// owned task in a single statement and returns the stored record, or
	// common.ErrNotFound when no owned task matches.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)

	// Delete removes the owned task. It reports false, not an error, when no
	// owned task matches.
	Delete(ctx context.Context, id, ownerID int64) (bool, error)

	// SetAttachmentKey records the object-store key of the task's attachment
	// without touching updated_at. Reports false when no owned task matches.
	SetAttachmentKey(ctx context.Context, id, ownerID int64, key string) (bool, error)
}
