// Package users persists credential records. The service layer only ever
// reads users; writes happen through the admin tooling.
package users

import (
	"context"

	"github.com/onoff/todo-api/internal/server/models"
)

type Repository interface {
	// FindByEmail looks a user up by normalized (lowercase) e-mail.
	// Returns common.ErrNotFound when no such user exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns the user with the given id or common.ErrNotFound.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// Upsert inserts the user or, when the e-mail is already taken, replaces
	// the stored hash, name and confirmation flag.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
}
