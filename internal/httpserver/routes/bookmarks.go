package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
)

func init() { Register(Public, registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Post("/bookmarks", handlers.SaveBookmark(d))
	r.Post("/bookmarks/import", handlers.ImportBookmarks(d))
	r.Post("/bookmarks/{id}/pin", handlers.TogglePin(d))
	r.Post("/bookmarks/{id}/delete", handlers.DeleteBookmark(d))
	r.Get("/api/bookmarks", handlers.ListBookmarks(d))
}
