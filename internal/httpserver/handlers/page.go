package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/form"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/render"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTmpl  = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/page.html"))
	usersTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/users.html"))
)

// Query flags set by post/redirect/get.
const (
	flagSaved      = "saved"
	flagRegistered = "registered"
	flagImported   = "imported"
	flagSkipped    = "skipped"

	queryParam = "q"
)

type pageData struct {
	Title string
	User  *domain.Identity
	Error string

	// Bookmark form
	Query     string
	View      render.View
	Form      form.Fields
	Focus     string
	Flash     string
	FormError string

	ImportNotice string

	// Anonymous forms
	LoginName     string
	LoginError    string
	RegisterName  string
	RegisterError string

	Users []userRow
}

type userRow struct {
	ID        string
	Name      string
	IsAdmin   bool
	CreatedAt time.Time
	Deletable bool
}

// Page renders the bookmark page, or the login and registration forms for
// an anonymous session.
func Page(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := pageData{Focus: form.FieldURL, Query: q.Get(queryParam)}

		switch {
		case q.Has(flagSaved):
			data.Flash = form.SavedFlash
		case q.Has(flagRegistered):
			data.Flash = "Registration successful! Please login."
		case q.Has(flagImported):
			data.ImportNotice = "Imported " + q.Get(flagImported) + " bookmarks, skipped " + q.Get(flagSkipped)
		}

		renderPage(w, r, d, http.StatusOK, data)
	}
}

// renderPage fills in the session user and the bookmark view, then writes
// the page with status.
func renderPage(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, data pageData) {
	h := holder(r)
	if ident, ok := h.CurrentUser(); ok {
		data.User = &ident

		list, err := d.Bookmarks.List(r.Context(), h)
		d.Metrics.Operation("list", err)
		if err != nil {
			d.Logger.Warn("failed to list bookmarks",
				logger.String("user_id", ident.UserID),
				logger.Error(err))
			if data.Error == "" {
				data.Error = domain.Message(err)
			}
			if status < http.StatusBadRequest {
				status = statusFor(err)
			}
		}
		data.View = render.Project(bookmarks.Filter(list, data.Query))
	}

	if data.Title == "" {
		data.Title = "Bookmarker"
	}
	writeTemplate(w, d, pageTmpl, status, data)
}

func writeTemplate(w http.ResponseWriter, d deps.Deps, t *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		d.Logger.Error("failed to render page", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

// holder returns the session attached by mw.Session. Routes without the
// middleware get an anonymous holder that cannot log in.
func holder(r *http.Request) *session.Holder {
	if h, ok := session.FromContext(r.Context()); ok {
		return h
	}
	h, _ := session.Open(r.Context(), nil, "", 0)
	return h
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNetworkFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// seeOther finishes a successful mutation with a redirect back to path.
func seeOther(w http.ResponseWriter, r *http.Request, path string, q url.Values) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
