// Package repomanager aggregates the per-feature repositories behind one
// interface so services can be wired (and faked in tests) in a single spot.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/onoff/todo-api/internal/dbx"
	"github.com/onoff/todo-api/internal/server/repositories/tasks"
	"github.com/onoff/todo-api/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
