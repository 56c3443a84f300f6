// Package form handles the bookmark entry form.
package form

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

const (
	FieldURL  = "url"
	FieldNote = "note"

	SavedFlash = "Saved!"
)

// Saver stores a validated entry.
type Saver interface {
	Save(ctx context.Context, sess bookmarks.Session, rawURL, note string, pinned bool) (domain.Bookmark, error)
}

// Fields are the raw form inputs.
type Fields struct {
	URL  string
	Note string
}

// Result tells the page what to show after a submit.
type Result struct {
	// Fields are the values to put back into the form.
	Fields Fields
	Saved  bool

	// Rerender asks for the bookmark panels to be rebuilt.
	Rerender bool
	Focus    string
	Flash    string

	Err     error
	Message string
}

type Controller struct {
	saver Saver
}

func NewController(saver Saver) *Controller {
	return &Controller{saver: saver}
}

// Submit trims both fields and forwards them. An empty field makes the
// submit a no-op that keeps what the user typed.
func (c *Controller) Submit(ctx context.Context, sess bookmarks.Session, in Fields) Result {
	trimmed := Fields{
		URL:  strings.TrimSpace(in.URL),
		Note: strings.TrimSpace(in.Note),
	}
	if trimmed.URL == "" || trimmed.Note == "" {
		return Result{Fields: in}
	}

	if _, err := c.saver.Save(ctx, sess, trimmed.URL, trimmed.Note, false); err != nil {
		focus := domain.FieldOf(err)
		return Result{
			Fields:  in,
			Focus:   focus,
			Err:     err,
			Message: domain.Message(err),
		}
	}

	return Result{
		Saved:    true,
		Rerender: true,
		Focus:    FieldURL,
		Flash:    SavedFlash,
	}
}
