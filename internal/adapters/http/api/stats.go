package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports counters of the scoring service.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a stats handler over p.
func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p, now: time.Now}
}

// HandleStats writes a snapshot of the provider's counters, stamped with the
// time it was taken.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	snapshot := maps.Clone(h.provider.GetStats())
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	snapshot["generated_at"] = h.now().UTC().Format(time.RFC3339)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snapshot)
}
