// Package services contains the application services: task management and
// authentication. Services are stateless; every call is scoped to one owner
// and the store provides per-record atomicity, so no in-process locking is
// needed.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/onoff/todo-api/internal/common"
	sc "github.com/onoff/todo-api/internal/server/config"
	"github.com/onoff/todo-api/internal/server/models"
	"github.com/onoff/todo-api/internal/server/repositories/repomanager"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// Status filter values recognized by List. Anything else means "no filter".
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

func validateTaskInput(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return &common.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return &common.ValidationError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", maxTitleLen)}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return &common.ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", maxDescriptionLen)}
	}
	return nil
}

// List returns the owner's tasks, most recently created first. The status
// filter is case-insensitive: "completed" and "pending" restrict the result,
// any other value (including "all" and "") applies no restriction. An owner
// with no tasks yields an empty slice, never an error.
func (s *TaskService) List(ctx context.Context, ownerID int64, statusFilter string) ([]*models.Task, error) {

	repo := s.repomanager.Tasks(s.db)

	all, err := repo.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.ErrStoreUnavailable
	}

	switch strings.ToLower(statusFilter) {
	case StatusCompleted:
		filtered := make([]*models.Task, 0, len(all))
		for _, t := range all {
			if t.IsCompleted {
				filtered = append(filtered, t)
			}
		}
		return filtered, nil
	case StatusPending:
		filtered := make([]*models.Task, 0, len(all))
		for _, t := range all {
			if !t.IsCompleted {
				filtered = append(filtered, t)
			}
		}
		return filtered, nil
	default:
		return all, nil
	}
}

// Create validates title and description, stores a fresh pending task and
// returns it with the assigned id. A failed create leaves the store
// unchanged.
func (s *TaskService) Create(ctx context.Context, ownerID int64, title, description string) (*models.Task, error) {

	if err := validateTaskInput(title, description); err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		IsCompleted: false,
		CreatedAt:   time.Now().UTC(),
	}

	repo := s.repomanager.Tasks(s.db)

	task, err := repo.Insert(ctx, task)
	if err != nil {
		return nil, common.ErrStoreUnavailable
	}

	return task, nil
}

// Update overwrites title, description and completion of the owned task and
// refreshes updated_at. When no task with the id exists under this owner it
// returns common.ErrNotFound; a task owned by somebody else is reported
// exactly the same way.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, title, description string, isCompleted bool) (*models.Task, error) {

	if err := validateTaskInput(title, description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          taskID,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		IsCompleted: isCompleted,
		UpdatedAt:   &now,
	}

	repo := s.repomanager.Tasks(s.db)

	updated, err := repo.Update(ctx, task)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrStoreUnavailable
	}

	return updated, nil
}

// Delete removes the owned task. A missing or foreign task yields false, not
// an error, so repeated deletes are idempotent.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) (bool, error) {

	repo := s.repomanager.Tasks(s.db)

	deleted, err := repo.Delete(ctx, taskID, ownerID)
	if err != nil {
		return false, common.ErrStoreUnavailable
	}

	return deleted, nil
}

// GetDashboard loads all owned tasks and counts them in memory. The full
// scan mirrors the listing semantics; dashboards and listings never disagree.
func (s *TaskService) GetDashboard(ctx context.Context, ownerID int64) (*models.Dashboard, error) {

	repo := s.repomanager.Tasks(s.db)

	all, err := repo.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.ErrStoreUnavailable
	}

	completed := 0
	for _, t := range all {
		if t.IsCompleted {
			completed++
		}
	}

	return &models.Dashboard{
		Total:     len(all),
		Completed: completed,
		Pending:   len(all) - completed,
	}, nil
}

func attachmentStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("tasks/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *TaskService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return s3.NewPresignClient(client), nil
}

// CreateAttachmentUploadURL checks ownership, reserves a fresh object key on
// the task and returns a presigned PUT URL the client uploads to directly.
func (s *TaskService) CreateAttachmentUploadURL(ctx context.Context, ownerID, taskID int64) (string, string, error) {

	repo := s.repomanager.Tasks(s.db)

	if _, err := repo.FindByIDAndOwner(ctx, taskID, ownerID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", "", common.ErrNotFound
		}
		return "", "", common.ErrStoreUnavailable
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := attachmentStorageKey()

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	ok, err := repo.SetAttachmentKey(ctx, taskID, ownerID, key)
	if err != nil {
		return "", "", common.ErrStoreUnavailable
	}
	if !ok {
		return "", "", common.ErrNotFound
	}

	return key, req.URL, nil
}

// AttachmentDownloadURL returns a presigned GET URL for the task's stored
// attachment. Tasks without an attachment report common.ErrNotFound.
func (s *TaskService) AttachmentDownloadURL(ctx context.Context, ownerID, taskID int64) (string, error) {

	repo := s.repomanager.Tasks(s.db)

	task, err := repo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", common.ErrStoreUnavailable
	}

	if task.AttachmentKey == nil {
		return "", common.ErrNotFound
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    task.AttachmentKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
