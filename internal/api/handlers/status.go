package handlers

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/augur/internal/buildconfig"
	"github.com/Harshitk-cp/augur/internal/service"
	"go.uber.org/zap"
)

// Pinger reports whether the knowledge store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type StatusHandler struct {
	brain  *service.Brain
	store  Pinger
	logger *zap.Logger
}

func NewStatusHandler(brain *service.Brain, store Pinger, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{brain: brain, store: store, logger: logger}
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.brain.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to build system status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read system status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *StatusHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildconfig.VersionInfo())
}
