package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode          string                     `json:"mode"`
	Backend       string                     `json:"backend"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Components    map[string]componentStatus `json:"components"`
}

// Infra reports the storage backend and the state of every backing
// service.
func Infra(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}

	return func(w http.ResponseWriter, r *http.Request) {
		components := make(map[string]componentStatus, len(d.Components))
		for name, err := range pingAll(r.Context(), d) {
			st := componentStatus{OK: err == nil}
			if err != nil {
				st.Error = err.Error()
			}
			components[name] = st
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:          determineMode(components),
			Backend:       d.Backend,
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
			Components:    components,
		})
	}
}

// determineMode is "critical" when the storage backend is down and
// "degraded" when only an auxiliary component is.
func determineMode(components map[string]componentStatus) string {
	mode := "operational"
	for name, st := range components {
		if st.OK {
			continue
		}
		if name == "storage" {
			return "critical"
		}
		mode = "degraded"
	}
	return mode
}
