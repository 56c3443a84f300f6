package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// componentTimeout bounds each backing service ping.
const componentTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz answers 503 until every backing service answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := true
		for name, err := range pingAll(r.Context(), d) {
			if err != nil {
				ready = false
				d.Logger.Warn("component not ready",
					logger.String("component", name),
					logger.Error(err))
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: ready})
	}
}

// pingAll pings every component concurrently.
func pingAll(ctx context.Context, d deps.Deps) map[string]error {
	type result struct {
		name string
		err  error
	}

	names := make([]string, 0, len(d.Components))
	for name := range d.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	ch := make(chan result, len(names))
	for _, name := range names {
		go func(name string, p deps.Pinger) {
			pctx, cancel := context.WithTimeout(ctx, componentTimeout)
			defer cancel()
			ch <- result{name: name, err: p.Ping(pctx)}
		}(name, d.Components[name])
	}

	out := make(map[string]error, len(names))
	for range names {
		res := <-ch
		out[res.name] = res.err
	}
	return out
}
