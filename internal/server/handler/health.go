package handler

import (
	"net/http"
	"time"
)

// Health reports liveness. Version is stamped at build time by the
// release pipeline; "dev" otherwise.
type Health struct {
	Version string
	started time.Time
}

// NewHealth creates the health handler.
func NewHealth(version string) *Health {
	if version == "" {
		version = "dev"
	}
	return &Health{Version: version, started: time.Now()}
}

func (h *Health) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
