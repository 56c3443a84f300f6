package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
)

// Users renders the user management overlay.
func Users(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderUsers(w, r, d, http.StatusOK, "")
	}
}

func DeleteUser(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Auth.DeleteUser(r.Context(), holder(r), chi.URLParam(r, "id"))
		d.Metrics.Operation("delete_user", err)
		if err != nil {
			renderUsers(w, r, d, statusFor(err), domain.Message(err))
			return
		}
		seeOther(w, r, "/admin/users", nil)
	}
}

func renderUsers(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, msg string) {
	h := holder(r)
	data := pageData{Title: "Bookmarker · Users", Error: msg}

	users, err := d.Auth.ListUsers(r.Context(), h)
	d.Metrics.Operation("list_users", err)
	if err != nil {
		// Non-admins see the page they came from, with the reason.
		renderPage(w, r, d, statusFor(err), pageData{Error: domain.Message(err)})
		return
	}

	actor, _ := h.CurrentUser()
	data.User = &actor
	for _, u := range users {
		data.Users = append(data.Users, userRow{
			ID:        u.ID,
			Name:      u.Name,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt,
			Deletable: u.ID != actor.UserID,
		})
	}
	writeTemplate(w, d, usersTmpl, status, data)
}
