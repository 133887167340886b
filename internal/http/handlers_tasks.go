package httpx

import (
	"errors"
	"net/http"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	"github.com/profilewatch/profile-ui-api/internal/service"
)

// TaskHandlers provides HTTP handlers for the task monitoring surface.
type TaskHandlers struct {
	Svc *service.TaskService
}

// Workers returns the live worker roster with each worker's running job.
func (h *TaskHandlers) Workers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Svc.Workers(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if workers == nil {
		workers = []model.WorkerDescriptor{}
	}
	WriteJSON(w, http.StatusOK, model.WorkerList{Workers: workers})
}

// Failed returns recently failed jobs, newest first.
func (h *TaskHandlers) Failed(w http.ResponseWriter, r *http.Request) {
	failed, err := h.Svc.FailedTasks(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if failed == nil {
		failed = []model.FailedTask{}
	}
	WriteJSON(w, http.StatusOK, model.FailedTaskList{Failed: failed})
}

// GetJob returns one job by id.
func (h *TaskHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("job id is required"),
		})
		return
	}

	job, err := h.Svc.GetJob(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
