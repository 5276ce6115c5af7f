package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/settings"
)

// SettingsHandler serves the last-used compression settings so clients
// can pre-fill their forms.
type SettingsHandler struct {
	store  *settings.Store
	logger *logrus.Logger
}

// NewSettingsHandler creates a new settings handler instance.
func NewSettingsHandler(store *settings.Store, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  store,
		logger: logger,
	}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Load())
}
