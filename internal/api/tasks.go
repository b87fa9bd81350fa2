package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/store"
)

// TasksHandler handles maintenance task endpoints.
type TasksHandler struct {
	DB *sql.DB
}

type createTaskRequest struct {
	ItemID       int64      `json:"item_id"`
	Title        string     `json:"title"`
	Notes        string     `json:"notes"`
	DueAt        *time.Time `json:"due_at"`
	IntervalDays int        `json:"interval_days"`
}

// taskForUser loads a task and verifies the item behind it belongs to the
// authenticated user, writing the error response itself on failure.
func (h *TasksHandler) taskForUser(w http.ResponseWriter, r *http.Request) *model.MaintenanceTask {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return nil
	}

	task, err := store.GetTask(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get task")
		return nil
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, "task not found")
		return nil
	}

	item, err := store.GetItem(r.Context(), h.DB, task.ItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get task item")
		return nil
	}
	claims := GetClaims(r.Context())
	if item == nil || claims == nil || item.UserID != claims.UserID {
		jsonError(w, http.StatusNotFound, "task not found")
		return nil
	}
	return task
}

// List handles GET /api/tasks: the user's open tasks across all items.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	tasks, err := store.ListOpenTasksForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.MaintenanceTask{}
	}
	jsonResponse(w, http.StatusOK, tasks)
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if req.IntervalDays < 0 {
		jsonError(w, http.StatusBadRequest, "interval_days must not be negative")
		return
	}

	task, err := store.CreateTask(r.Context(), h.DB, req.ItemID, claims.UserID, req.Title, req.Notes, req.DueAt, req.IntervalDays)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) || errors.Is(err, store.ErrOwnershipMismatch) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	jsonResponse(w, http.StatusCreated, task)
}

// Complete handles POST /api/tasks/{id}/complete. Recurring tasks roll
// forward to their next due date instead of closing.
func (h *TasksHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task := h.taskForUser(w, r)
	if task == nil {
		return
	}

	if err := store.CompleteTask(r.Context(), h.DB, task.ID, time.Now()); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	updated, _ := store.GetTask(r.Context(), h.DB, task.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task := h.taskForUser(w, r)
	if task == nil {
		return
	}

	if err := store.DeleteTask(r.Context(), h.DB, task.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "task deleted"})
}
