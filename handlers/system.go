package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/hardware"
	"github.com/alharthydev/compresspro/internal/sysinfo"
)

// CapabilityDetector reports available hardware encoders.
type CapabilityDetector interface {
	Detect() []hardware.Capability
}

// SystemResponse is the body of GET /system.
type SystemResponse struct {
	Hardware []hardware.Capability `json:"hardware"`
	System   sysinfo.Report        `json:"system"`
}

// SystemHandler reports detected hardware capabilities and machine
// resources so clients can populate encoder and thread choices.
type SystemHandler struct {
	detector CapabilityDetector
	logger   *logrus.Logger
}

// NewSystemHandler creates a new system handler instance.
func NewSystemHandler(detector CapabilityDetector, logger *logrus.Logger) *SystemHandler {
	return &SystemHandler{
		detector: detector,
		logger:   logger,
	}
}

func (h *SystemHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	report, err := sysinfo.Collect()
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect system info")
		writeError(w, http.StatusInternalServerError, "failed to collect system info")
		return
	}

	writeJSON(w, http.StatusOK, SystemResponse{
		Hardware: h.detector.Detect(),
		System:   report,
	})
}
