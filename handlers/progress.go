package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/job"
)

const writeWait = 10 * time.Second

// ProgressHandler streams job events over a WebSocket at /ws/jobs/{id}.
// The stream carries every progress update followed by the terminal
// result, after which the connection closes.
type ProgressHandler struct {
	manager  *job.Manager
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewProgressHandler creates a new progress handler instance.
func NewProgressHandler(manager *job.Manager, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The server is local to the machine doing the encode.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	j, ok := h.manager.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, job.ErrJobNotFound.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	events := j.Subscribe()
	defer j.Unsubscribe(events)

	// Reader goroutine: drains control frames and unblocks the writer
	// when the client goes away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, open := <-events:
			if !open {
				deadline := time.Now().Add(writeWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if writeErr := conn.WriteJSON(ev); writeErr != nil {
				h.logger.WithError(writeErr).WithField("job_id", j.ID()).Debug("WebSocket write failed")
				return
			}
		case <-clientGone:
			return
		}
	}
}
