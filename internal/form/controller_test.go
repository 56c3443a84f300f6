package form

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/store/memory"
)

type session struct{ ident *domain.Identity }

func (s session) CurrentUser() (domain.Identity, bool) {
	if s.ident == nil {
		return domain.Identity{}, false
	}
	return *s.ident, true
}

type countingSaver struct {
	Saver
	calls int
}

func (c *countingSaver) Save(ctx context.Context, sess bookmarks.Session, rawURL, note string, pinned bool) (domain.Bookmark, error) {
	c.calls++
	return c.Saver.Save(ctx, sess, rawURL, note, pinned)
}

func newController() (*Controller, *countingSaver) {
	saver := &countingSaver{Saver: bookmarks.NewService(memory.NewStore(), logger.New("error", false))}
	return NewController(saver), saver
}

func TestSubmit(t *testing.T) {
	alice := session{ident: &domain.Identity{UserID: "alice"}}

	tests := []struct {
		name      string
		sess      session
		in        Fields
		wantSaved bool
		wantCalls int
		wantErr   error
		wantFocus string
	}{
		{
			name:      "valid entry",
			sess:      alice,
			in:        Fields{URL: " https://example.com ", Note: " read later "},
			wantSaved: true,
			wantCalls: 1,
			wantFocus: FieldURL,
		},
		{
			name:      "empty url is a no-op",
			sess:      alice,
			in:        Fields{URL: "   ", Note: "note"},
			wantCalls: 0,
		},
		{
			name:      "empty note is a no-op",
			sess:      alice,
			in:        Fields{URL: "https://example.com", Note: ""},
			wantCalls: 0,
		},
		{
			name:      "invalid url",
			sess:      alice,
			in:        Fields{URL: "not-a-url", Note: "x"},
			wantCalls: 1,
			wantErr:   domain.ErrValidation,
			wantFocus: FieldURL,
		},
		{
			name:      "logged out",
			sess:      session{},
			in:        Fields{URL: "https://example.com", Note: "x"},
			wantCalls: 1,
			wantErr:   domain.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, saver := newController()
			res := c.Submit(context.Background(), tt.sess, tt.in)

			if saver.calls != tt.wantCalls {
				t.Errorf("Save() called %d times, want %d", saver.calls, tt.wantCalls)
			}
			if res.Saved != tt.wantSaved {
				t.Errorf("Saved = %v, want %v", res.Saved, tt.wantSaved)
			}
			if res.Focus != tt.wantFocus {
				t.Errorf("Focus = %q, want %q", res.Focus, tt.wantFocus)
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}

			if tt.wantSaved {
				if res.Fields != (Fields{}) {
					t.Errorf("fields should be cleared, got %+v", res.Fields)
				}
				if !res.Rerender || res.Flash != SavedFlash {
					t.Errorf("want rerender with flash, got %+v", res)
				}
				return
			}
			if res.Fields != tt.in {
				t.Errorf("fields should be kept, got %+v", res.Fields)
			}
			if res.Rerender {
				t.Error("failed submit should not rerender")
			}
			if tt.wantErr != nil && res.Message == "" {
				t.Error("failed submit should carry a message")
			}
		})
	}
}
