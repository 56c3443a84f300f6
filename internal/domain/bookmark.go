package domain

import (
	"net/url"
	"strings"
	"time"
)

// Bookmark is a saved link with a short note. JSON names follow the
// column names of the hosted bookmarks table.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	ID      string `json:"id"`
	OwnerID string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is always absolute. Example: https://example.com/article
	URL  string `json:"url"`
	Note string `json:"note"`

	// Pinned bookmarks also appear in the highlighted list.
	Pinned bool `json:"is_pinned"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is stamped by pin toggles only.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Entry is an unsaved url/note pair, as submitted or imported.
type Entry struct {
	URL  string
	Note string
}

// ValidateURL reports whether raw parses as an absolute URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Invalid("url", "Please enter a valid URL starting with http:// or https://")
	}
	return nil
}

// ValidateEntry trims e and checks both fields.
func ValidateEntry(e Entry) (Entry, error) {
	e.URL = strings.TrimSpace(e.URL)
	e.Note = strings.TrimSpace(e.Note)

	if err := ValidateURL(e.URL); err != nil {
		return e, err
	}
	if e.Note == "" {
		return e, Invalid("note", "Note must not be empty")
	}
	return e, nil
}
