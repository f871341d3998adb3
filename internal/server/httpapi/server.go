// Package httpapi exposes the task and auth services over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/onoff/todo-api/internal/logging"
	"github.com/onoff/todo-api/internal/server/models"
	"github.com/onoff/todo-api/internal/server/services"
)

// UserService is the slice of the auth service the transport needs.
type UserService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	ValidateToken(tokenString string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TaskService is the slice of the task service the transport needs.
type TaskService interface {
	List(ctx context.Context, ownerID int64, statusFilter string) ([]*models.Task, error)
	Create(ctx context.Context, ownerID int64, title, description string) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID int64, title, description string, isCompleted bool) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID int64) (bool, error)
	GetDashboard(ctx context.Context, ownerID int64) (*models.Dashboard, error)
	CreateAttachmentUploadURL(ctx context.Context, ownerID, taskID int64) (string, string, error)
	AttachmentDownloadURL(ctx context.Context, ownerID, taskID int64) (string, error)
}

type Server struct {
	address string
	logger  logging.Logger
	users   UserService
	tasks   TaskService
}

func NewServer(address string, l logging.Logger, us UserService, ts TaskService) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "httpapi"),
		users:   us,
		tasks:   ts,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
