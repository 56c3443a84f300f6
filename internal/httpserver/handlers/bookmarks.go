package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/form"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/render"
	"github.com/MrSnakeDoc/bookmarker/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
)

// maxUploadBytes bounds the multipart body of an import.
const maxUploadBytes = homepage.MaxFileSize + 64<<10

// SaveBookmark submits the bookmark form.
func SaveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := form.Fields{
			URL:  r.PostFormValue(form.FieldURL),
			Note: r.PostFormValue(form.FieldNote),
		}

		res := d.Form.Submit(r.Context(), holder(r), in)
		switch {
		case res.Saved:
			d.Metrics.Operation("save", nil)
			seeOther(w, r, "/", url.Values{flagSaved: {"1"}})
		case res.Err != nil:
			d.Metrics.Operation("save", res.Err)
			focus := res.Focus
			if focus == "" {
				focus = form.FieldURL
			}
			renderPage(w, r, d, statusFor(res.Err), pageData{
				Form:      res.Fields,
				Focus:     focus,
				FormError: res.Message,
			})
		default:
			// An empty field: nothing saved, keep what was typed.
			focus := form.FieldURL
			if res.Fields.URL != "" {
				focus = form.FieldNote
			}
			renderPage(w, r, d, http.StatusOK, pageData{Form: res.Fields, Focus: focus})
		}
	}
}

func TogglePin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := d.Bookmarks.TogglePin(r.Context(), holder(r), chi.URLParam(r, "id"))
		d.Metrics.Operation("toggle_pin", err)
		finishMutation(w, r, d, err)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Bookmarks.Delete(r.Context(), holder(r), chi.URLParam(r, "id"))
		d.Metrics.Operation("delete", err)
		finishMutation(w, r, d, err)
	}
}

func finishMutation(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if err != nil {
		renderPage(w, r, d, statusFor(err), pageData{
			Focus: form.FieldURL,
			Error: domain.Message(err),
		})
		return
	}
	seeOther(w, r, "/", nil)
}

// ImportBookmarks saves the entries of an uploaded Homepage bookmarks.yaml
// or services.yaml.
func ImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := holder(r)
		if !h.IsLoggedIn() {
			d.Metrics.Operation("import", domain.ErrUnauthenticated)
			renderPage(w, r, d, http.StatusUnauthorized, pageData{Error: domain.Message(domain.ErrUnauthenticated)})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, _, err := r.FormFile("file")
		if err != nil {
			d.Metrics.Operation("import", err)
			renderPage(w, r, d, http.StatusBadRequest, pageData{Error: "Please choose a bookmarks.yaml file to import"})
			return
		}
		defer utils.Close(file)

		entries, err := homepage.Parse(file)
		if err != nil {
			d.Metrics.Operation("import", err)
			d.Logger.Info("rejected import", logger.Error(err))
			msg := "Could not read the file: " + err.Error()
			if errors.Is(err, homepage.ErrTooLarge) {
				msg = "The file is too large"
			}
			renderPage(w, r, d, http.StatusBadRequest, pageData{Error: msg})
			return
		}

		res, err := d.Bookmarks.Import(r.Context(), h, entries)
		d.Metrics.Operation("import", err)
		if err != nil {
			renderPage(w, r, d, statusFor(err), pageData{
				Error: domain.Message(err) + " (" + strconv.Itoa(res.Imported) + " imported before the failure)",
			})
			return
		}

		seeOther(w, r, "/", url.Values{
			flagImported: {strconv.Itoa(res.Imported)},
			flagSkipped:  {strconv.Itoa(res.Skipped)},
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListBookmarks returns the current view as JSON, filtered by ?q=.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Bookmarks.List(r.Context(), holder(r))
		d.Metrics.Operation("list", err)
		if err != nil {
			writeJSON(w, statusFor(err), errorResponse{Error: domain.Message(err)})
			return
		}

		writeJSON(w, http.StatusOK, render.Project(bookmarks.Filter(list, r.URL.Query().Get(queryParam))))
	}
}
