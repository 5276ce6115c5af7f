package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/job"
)

// JobsHandler serves job status reads and cancellation.
type JobsHandler struct {
	manager *job.Manager
	logger  *logrus.Logger
}

// NewJobsHandler creates a new jobs handler instance.
func NewJobsHandler(manager *job.Manager, logger *logrus.Logger) *JobsHandler {
	return &JobsHandler{
		manager: manager,
		logger:  logger,
	}
}

// Get serves GET /jobs/{id} with the job's current snapshot.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, ok := h.manager.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, job.ErrJobNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, j.Snapshot())
}

// Cancel serves DELETE /jobs/{id}, requesting cooperative cancellation.
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.manager.Cancel(id); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).WithField("job_id", id).Error("Failed to cancel job")
		writeError(w, http.StatusInternalServerError, "failed to cancel job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
