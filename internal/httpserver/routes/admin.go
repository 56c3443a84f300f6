package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
)

func init() { Register(Public, registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Get("/admin/users", handlers.Users(d))
	r.Post("/admin/users/{id}/delete", handlers.DeleteUser(d))
}
