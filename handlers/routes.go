package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/config"
	"github.com/alharthydev/compresspro/internal/job"
	"github.com/alharthydev/compresspro/internal/settings"
	"github.com/alharthydev/compresspro/internal/types"
)

// NewRouter wires all handlers onto a mux behind the logging middleware.
func NewRouter(manager *job.Manager, detector CapabilityDetector, store *settings.Store, presets config.Presets, defaultHardware types.HardwareType, logger *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	jobs := NewJobsHandler(manager, logger)

	mux.Handle("POST /compress", NewCompressHandler(manager, presets, defaultHardware, logger))
	mux.HandleFunc("GET /jobs/{id}", jobs.Get)
	mux.HandleFunc("DELETE /jobs/{id}", jobs.Cancel)
	mux.Handle("GET /ws/jobs/{id}", NewProgressHandler(manager, logger))
	mux.Handle("GET /system", NewSystemHandler(detector, logger))
	mux.Handle("GET /settings", NewSettingsHandler(store, logger))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return LoggingMiddleware(logger)(mux)
}
