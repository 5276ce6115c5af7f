// Package handlers provides HTTP handlers for the compression server.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/config"
	"github.com/alharthydev/compresspro/internal/encode"
	"github.com/alharthydev/compresspro/internal/job"
	"github.com/alharthydev/compresspro/internal/types"
)

// CompressRequest is the JSON body of POST /compress. QualityPreset, when
// set, fills Preset, CRF and AudioBitrate from the named quality preset
// before explicit fields are considered.
type CompressRequest struct {
	types.CompressionRequest
	QualityPreset string `json:"quality_preset,omitempty"`
}

// CompressHandler accepts compression jobs.
type CompressHandler struct {
	manager         *job.Manager
	presets         config.Presets
	defaultHardware types.HardwareType
	logger          *logrus.Logger
}

// NewCompressHandler creates a new compress handler instance.
func NewCompressHandler(manager *job.Manager, presets config.Presets, defaultHardware types.HardwareType, logger *logrus.Logger) *CompressHandler {
	return &CompressHandler{
		manager:         manager,
		presets:         presets,
		defaultHardware: defaultHardware,
		logger:          logger,
	}
}

func (h *CompressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req, err := h.buildRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	j, err := h.manager.Start(req)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, encode.ErrInputNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, job.ErrJobActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.WithError(err).Error("Failed to start compression job")
			writeError(w, http.StatusInternalServerError, "failed to start job")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, j.Snapshot())
}

// buildRequest applies the quality preset and fills defaulted fields.
func (h *CompressHandler) buildRequest(body CompressRequest) (types.CompressionRequest, error) {
	req := body.CompressionRequest

	if body.QualityPreset != "" {
		preset, err := h.presets.Get(body.QualityPreset)
		if err != nil {
			return types.CompressionRequest{}, err
		}
		if req.Preset == "" {
			req.Preset = preset.Preset
		}
		if req.CRF == 0 {
			req.CRF = preset.CRF
		}
		if req.AudioBitrate == "" {
			req.AudioBitrate = preset.AudioBitrate
		}
	}

	if req.QualityMode == "" {
		req.QualityMode = types.QualityCRF
	}
	if req.Resolution == "" {
		req.Resolution = types.ResolutionOriginal
	}
	if req.FrameRate == "" {
		req.FrameRate = types.FrameRateOriginal
	}
	if req.Hardware == "" {
		req.Hardware = h.defaultHardware
	}
	return req, nil
}
