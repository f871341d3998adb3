package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onoff/todo-api/internal/common"
	"github.com/onoff/todo-api/internal/dbx"
	"github.com/onoff/todo-api/internal/server/models"
)

const taskColumns = "id, owner_id, title, description, is_completed, created_at, updated_at, attachment_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &task.Description,
		&task.IsCompleted, &task.CreatedAt, &task.UpdatedAt, &task.AttachmentKey)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (owner_id, title, description, is_completed, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Title, task.Description, task.IsCompleted, task.CreatedAt).
		Scan(&task.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) FindByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) FindAllByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET title = $1, description = $2, is_completed = $3, updated_at = $4
		 WHERE id = $5 AND owner_id = $6
		 RETURNING ` + taskColumns + `
		 `

	updated, err := scanTask(r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.IsCompleted, task.UpdatedAt, task.ID, task.OwnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	query :=
		`DELETE FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) SetAttachmentKey(ctx context.Context, id, ownerID int64, key string) (bool, error) {
	query :=
		`UPDATE tasks
		 SET attachment_key = $1
		 WHERE id = $2 AND owner_id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, key, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}
