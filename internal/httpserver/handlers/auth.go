package handlers

import (
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// Login authenticates the submitted credentials and rotates the session
// cookie onto the new slot.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PostFormValue("username")
		h := holder(r)

		_, err := d.Auth.Login(r.Context(), h, name, r.PostFormValue("password"))
		d.Metrics.Operation("login", err)
		if err != nil {
			renderPage(w, r, d, statusFor(err), pageData{
				LoginName:  name,
				LoginError: domain.Message(err),
			})
			return
		}

		if err := d.Signer.WriteCookie(w, h.ID()); err != nil {
			d.Logger.Error("failed to issue session cookie", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		seeOther(w, r, "/", nil)
	}
}

// Register creates a regular account. The user logs in afterwards.
func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PostFormValue("username")

		_, err := d.Auth.Register(r.Context(), name, r.PostFormValue("password"))
		d.Metrics.Operation("register", err)
		if err != nil {
			renderPage(w, r, d, statusFor(err), pageData{
				RegisterName:  name,
				RegisterError: domain.Message(err),
			})
			return
		}
		seeOther(w, r, "/", url.Values{flagRegistered: {"1"}})
	}
}

func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Auth.Logout(r.Context(), holder(r))
		d.Metrics.Operation("logout", err)
		if err != nil {
			d.Logger.Warn("failed to clear session", logger.Error(err))
		}

		d.Signer.ClearCookie(w)
		seeOther(w, r, "/", nil)
	}
}
