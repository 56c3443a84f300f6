package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
)

func init() { Register(Public, registerPage) }

func registerPage(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Page(d))
}
