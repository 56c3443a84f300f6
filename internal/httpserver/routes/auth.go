package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/mw"
)

func init() { Register(Public, registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	// One bucket per client IP shared by login and registration.
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Name:              "auth",
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	}, d.Metrics))

	limited.Post("/login", handlers.Login(d))
	limited.Post("/register", handlers.Register(d))
	r.Post("/logout", handlers.Logout(d))
}
