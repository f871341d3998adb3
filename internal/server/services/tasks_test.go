package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/onoff/todo-api/internal/common"
	"github.com/onoff/todo-api/internal/dbx"
	sc "github.com/onoff/todo-api/internal/server/config"
	"github.com/onoff/todo-api/internal/server/models"
	tasksrepo "github.com/onoff/todo-api/internal/server/repositories/tasks"
	usersrepo "github.com/onoff/todo-api/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeTaskRepo is an in-memory tasks.Repository. When failWith is set every
// call reports it.
type fakeTaskRepo struct {
	nextID   int64
	tasks    map[int64]*models.Task
	failWith error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, tasks: map[int64]*models.Task{}}
}

func (f *fakeTaskRepo) Insert(ctx context.Context, task *models.Task) (*models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	stored := *task
	stored.ID = f.nextID
	f.nextID++
	f.tasks[stored.ID] = &stored
	result := stored
	return &result, nil
}

func (f *fakeTaskRepo) FindByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	result := *task
	return &result, nil
}

func (f *fakeTaskRepo) FindAllByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := []*models.Task{}
	for _, task := range f.tasks {
		if task.OwnerID == ownerID {
			t := *task
			result = append(result, &t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	stored, ok := f.tasks[task.ID]
	if !ok || stored.OwnerID != task.OwnerID {
		return nil, common.ErrNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.IsCompleted = task.IsCompleted
	stored.UpdatedAt = task.UpdatedAt
	result := *stored
	return &result, nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

func (f *fakeTaskRepo) SetAttachmentKey(ctx context.Context, id, ownerID int64, key string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return false, nil
	}
	task.AttachmentKey = &key
	return true, nil
}

type fakeRepoManager struct {
	u usersrepo.Repository
	t tasksrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasksrepo.Repository       { return m.t }

func newTaskService(t *testing.T, repo tasksrepo.Repository) *TaskService {
	t.Helper()
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return NewTaskService(newSQLMockDB(t), &fakeRepoManager{t: repo}, cfg)
}

func mustCreate(t *testing.T, s *TaskService, ownerID int64, title, description string) *models.Task {
	t.Helper()
	task, err := s.Create(context.Background(), ownerID, title, description)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return task
}

// --- tests ---

func TestCreate_RoundTrip(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	created := mustCreate(t, s, 1, "T", "D")
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if created.IsCompleted {
		t.Fatalf("new task must be pending")
	}
	if created.UpdatedAt != nil {
		t.Fatalf("new task must have no updated_at")
	}

	all, err := s.List(ctx, 1, "all")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 task, got %d", len(all))
	}
	got := all[0]
	if got.Title != "T" || got.Description != "D" || got.IsCompleted || got.UpdatedAt != nil {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreate_TitleValidation(t *testing.T) {
	repo := newFakeTaskRepo()
	s := newTaskService(t, repo)
	ctx := context.Background()

	tests := []struct {
		name        string
		title       string
		description string
	}{
		{name: "empty title", title: "", description: ""},
		{name: "whitespace title", title: "   \t ", description: ""},
		{name: "201 char title", title: strings.Repeat("x", 201), description: ""},
		{name: "1001 char description", title: "ok", description: strings.Repeat("d", 1001)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, 1, tc.title, tc.description)
			var ve *common.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	// failed creates must leave the store unchanged
	all, err := s.List(ctx, 1, "all")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("store must be unchanged after failed creates, got %d tasks", len(all))
	}
}

func TestCreate_BoundaryLengthsAccepted(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())

	mustCreate(t, s, 1, strings.Repeat("x", 200), strings.Repeat("d", 1000))
}

func TestList_StatusFilter(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	done := mustCreate(t, s, 1, "done", "")
	mustCreate(t, s, 1, "open-1", "")
	mustCreate(t, s, 1, "open-2", "")

	if _, err := s.Update(ctx, 1, done.ID, "done", "", true); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	completed, err := s.List(ctx, 1, "COMPLETED")
	if err != nil {
		t.Fatalf("List completed error: %v", err)
	}
	pending, err := s.List(ctx, 1, "Pending")
	if err != nil {
		t.Fatalf("List pending error: %v", err)
	}
	all, err := s.List(ctx, 1, "anything-else")
	if err != nil {
		t.Fatalf("List all error: %v", err)
	}

	if len(completed) != 1 || !completed[0].IsCompleted {
		t.Fatalf("unexpected completed set: %d", len(completed))
	}
	if len(pending) != 2 {
		t.Fatalf("unexpected pending set: %d", len(pending))
	}

	// completed and pending partition the full set
	seen := map[int64]bool{}
	for _, task := range completed {
		seen[task.ID] = true
	}
	for _, task := range pending {
		if seen[task.ID] {
			t.Fatalf("task %d in both completed and pending", task.ID)
		}
		seen[task.ID] = true
	}
	if len(seen) != len(all) {
		t.Fatalf("completed ∪ pending has %d tasks, all has %d", len(seen), len(all))
	}
}

func TestList_OrderIsCreatedAtDescending(t *testing.T) {
	repo := newFakeTaskRepo()
	s := newTaskService(t, repo)
	ctx := context.Background()

	first := mustCreate(t, s, 1, "first", "")
	second := mustCreate(t, s, 1, "second", "")

	// force distinct timestamps, newest last
	repo.tasks[first.ID].CreatedAt = time.Now().UTC().Add(-time.Hour)
	repo.tasks[second.ID].CreatedAt = time.Now().UTC()

	all, err := s.List(ctx, 1, "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if all[0].Title != "second" || all[1].Title != "first" {
		t.Fatalf("unexpected order: %q, %q", all[0].Title, all[1].Title)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	taskOfA := mustCreate(t, s, 1, "A's task", "")

	listB, err := s.List(ctx, 2, "all")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(listB) != 0 {
		t.Fatalf("owner B must not see A's tasks, got %d", len(listB))
	}

	_, err = s.Update(ctx, 2, taskOfA.ID, "hijack", "", true)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("cross-owner update must be NotFound, got %v", err)
	}

	deleted, err := s.Delete(ctx, 2, taskOfA.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted {
		t.Fatalf("cross-owner delete must report false")
	}

	// A's task is intact
	listA, err := s.List(ctx, 1, "all")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(listA) != 1 || listA[0].Title != "A's task" || listA[0].IsCompleted {
		t.Fatalf("A's task was modified: %+v", listA[0])
	}
}

func TestUpdate_RefreshesUpdatedAt(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	created := mustCreate(t, s, 1, "T", "D")

	updated, err := s.Update(ctx, 1, created.ID, "T2", "D2", true)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Title != "T2" || updated.Description != "D2" || !updated.IsCompleted {
		t.Fatalf("fields not overwritten: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Fatalf("updated_at must be set after update")
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at %v before created_at %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestUpdate_ValidationLeavesStoreUnchanged(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	created := mustCreate(t, s, 1, "T", "D")

	_, err := s.Update(ctx, 1, created.ID, "", "", true)
	var ve *common.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	all, _ := s.List(ctx, 1, "all")
	if all[0].Title != "T" || all[0].IsCompleted || all[0].UpdatedAt != nil {
		t.Fatalf("store must be unchanged after failed update: %+v", all[0])
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	created := mustCreate(t, s, 1, "T", "")

	deleted, err := s.Delete(ctx, 1, created.ID)
	if err != nil || !deleted {
		t.Fatalf("first delete: ok=%v err=%v", deleted, err)
	}

	deleted, err = s.Delete(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Fatalf("second delete must report false")
	}
}

func TestGetDashboard_Arithmetic(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	d, err := s.GetDashboard(ctx, 1)
	if err != nil {
		t.Fatalf("GetDashboard error: %v", err)
	}
	if d.Total != 0 || d.Completed != 0 || d.Pending != 0 {
		t.Fatalf("empty owner must have zero dashboard: %+v", d)
	}

	done := mustCreate(t, s, 1, "done", "")
	mustCreate(t, s, 1, "open-1", "")
	mustCreate(t, s, 1, "open-2", "")
	mustCreate(t, s, 2, "other owner", "")

	if _, err := s.Update(ctx, 1, done.ID, "done", "", true); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	d, err = s.GetDashboard(ctx, 1)
	if err != nil {
		t.Fatalf("GetDashboard error: %v", err)
	}
	if d.Total != 3 || d.Completed != 1 || d.Pending != 2 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if d.Completed+d.Pending != d.Total {
		t.Fatalf("completed+pending != total: %+v", d)
	}
}

func TestStoreFailure_SurfacesAsStoreUnavailable(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.failWith = errors.New("connection refused")
	s := newTaskService(t, repo)
	ctx := context.Background()

	if _, err := s.List(ctx, 1, "all"); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("List: want ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.Create(ctx, 1, "T", ""); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("Create: want ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.Update(ctx, 1, 1, "T", "", false); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("Update: want ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.Delete(ctx, 1, 1); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("Delete: want ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.GetDashboard(ctx, 1); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("GetDashboard: want ErrStoreUnavailable, got %v", err)
	}
}

func TestAttachmentDownloadURL_NoAttachmentIsNotFound(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())
	ctx := context.Background()

	created := mustCreate(t, s, 1, "T", "")

	_, err := s.AttachmentDownloadURL(ctx, 1, created.ID)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing attachment, got %v", err)
	}

	_, err = s.AttachmentDownloadURL(ctx, 2, created.ID)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign owner, got %v", err)
	}
}

func TestCreateAttachmentUploadURL_UnknownTaskIsNotFound(t *testing.T) {
	s := newTaskService(t, newFakeTaskRepo())

	_, _, err := s.CreateAttachmentUploadURL(context.Background(), 1, 999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
