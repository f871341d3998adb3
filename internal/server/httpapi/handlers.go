package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/onoff/todo-api/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service failures onto HTTP statuses. Auth failures
// stay deliberately unspecific.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrStoreUnavailable):
		s.logger.Error(r.Context(), "store unavailable", "path", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		s.logger.Error(r.Context(), "unexpected error", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func (s *Server) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
	}
	return ownerID, ok
}

func taskIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    result.Token,
		UserName: result.UserName,
		Email:    result.Email,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	user, err := s.users.GetByID(r.Context(), ownerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	tasks, err := s.tasks.List(r.Context(), ownerID, r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskListResponse(tasks))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.tasks.Create(r.Context(), ownerID, req.Title, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.tasks.Update(r.Context(), ownerID, taskID, req.Title, req.Description, req.IsCompleted)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	deleted, err := s.tasks.Delete(r.Context(), ownerID, taskID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	dashboard, err := s.tasks.GetDashboard(r.Context(), ownerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Total:     dashboard.Total,
		Completed: dashboard.Completed,
		Pending:   dashboard.Pending,
	})
}

func (s *Server) handleAttachmentUploadURL(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	key, url, err := s.tasks.CreateAttachmentUploadURL(r.Context(), ownerID, taskID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attachmentUploadResponse{Key: key, UploadURL: url})
}

func (s *Server) handleAttachmentDownloadURL(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	url, err := s.tasks.AttachmentDownloadURL(r.Context(), ownerID, taskID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attachmentDownloadResponse{DownloadURL: url})
}
