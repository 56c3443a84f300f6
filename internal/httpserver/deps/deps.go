package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/auth"
	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/form"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/metrics"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
)

// Pinger is a backing service the readiness probes check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // IPs allowed to access healthz/readyz/infra/metrics
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout time.Duration    // per-request deadline

	Backend    string            // storage driver name, reported by /infra
	Components map[string]Pinger // backing services checked by /readyz and /infra

	Auth      *auth.Service
	Bookmarks *bookmarks.Service
	Form      *form.Controller

	Signer     *session.Signer   // session cookie codec
	Slots      session.SlotStore // session slot persistence
	SessionTTL time.Duration

	RateLimitBurst  int // login/register bucket size
	RateLimitPerMin int // login/register refill rate

	Metrics *metrics.Metrics // nil disables instrumentation
}
