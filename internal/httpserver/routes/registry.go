package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/mw"
)

// Group selects the middleware stack a registrar's routes run behind.
type Group int

const (
	// Public routes are restricted to the allowed hosts and see the
	// caller's session holder.
	Public Group = iota
	// Infra routes are restricted to the allowed client networks.
	Infra
)

type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	group Group
	reg   Registrar
}

var registry []entry

// Register adds reg to group. Route files call it from init.
func Register(group Group, reg Registrar) {
	registry = append(registry, entry{group: group, reg: reg})
}

// RegisterAll mounts every registrar behind its group's middleware.
// Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	groups := map[Group]chi.Router{
		Public: r.With(
			mw.EnforceHost(d.AllowedHosts, d.Logger),
			mw.Session(d.Signer, d.Slots, d.SessionTTL, d.Auth, d.Logger),
		),
		Infra: r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)),
	}

	for _, e := range registry {
		e.reg(groups[e.group], d)
	}
}
