package supabase

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

const (
	bookmarksPath = "/rest/v1/bookmarks"

	// togglePinAttempts bounds the compare-and-set retries of TogglePin.
	togglePinAttempts = 3
)

// rows is a PostgREST request made with the access token found in ctx.
// Row level security scopes every call to that user; the explicit
// user_id filters repeat the constraint.
func (c *Client) rows(ctx context.Context) (*resty.Request, error) {
	token := domain.AccessToken(ctx)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return c.user(ctx, token), nil
}

func (c *Client) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	req, err := c.rows(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetQueryParam("select", "*").
		SetQueryParam("user_id", "eq."+ownerID).
		SetQueryParam("order", "created_at.desc").
		Get(bookmarksPath)
	if err != nil {
		return nil, transport("list bookmarks", err)
	}
	if err := mapError(resp, "list bookmarks"); err != nil {
		return nil, err
	}

	list := []domain.Bookmark{}
	if err := decode(resp, &list, "list bookmarks"); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) InsertBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	req, err := c.rows(ctx)
	if err != nil {
		return domain.Bookmark{}, err
	}

	resp, err := req.
		SetHeader("Prefer", "return=representation").
		SetBody([]domain.Bookmark{b}).
		Post(bookmarksPath)
	if err != nil {
		return domain.Bookmark{}, transport("save bookmark", err)
	}
	if err := mapError(resp, "save bookmark"); err != nil {
		return domain.Bookmark{}, err
	}

	var created []domain.Bookmark
	if err := decode(resp, &created, "save bookmark"); err != nil {
		return domain.Bookmark{}, err
	}
	if len(created) == 0 {
		return b, nil
	}
	return created[0], nil
}

func (c *Client) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	req, err := c.rows(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetQueryParam("user_id", "eq."+ownerID).
		Delete(bookmarksPath)
	if err != nil {
		return transport("delete bookmark", err)
	}
	if err := mapError(resp, "delete bookmark"); err != nil {
		return err
	}

	var deleted []domain.Bookmark
	if err := decode(resp, &deleted, "delete bookmark"); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TogglePin reads the flag and writes its negation conditioned on the value
// read, so a concurrent toggle makes the write match no row and the loop
// reads again.
func (c *Client) TogglePin(ctx context.Context, ownerID, id string, at time.Time) (domain.Bookmark, error) {
	for attempt := 0; attempt < togglePinAttempts; attempt++ {
		current, err := c.getBookmark(ctx, ownerID, id)
		if err != nil {
			return domain.Bookmark{}, err
		}

		req, err := c.rows(ctx)
		if err != nil {
			return domain.Bookmark{}, err
		}
		resp, err := req.
			SetHeader("Prefer", "return=representation").
			SetQueryParam("id", "eq."+id).
			SetQueryParam("user_id", "eq."+ownerID).
			SetQueryParam("is_pinned", "eq."+strconv.FormatBool(current.Pinned)).
			SetBody(map[string]any{
				"is_pinned":  !current.Pinned,
				"updated_at": at.UTC(),
			}).
			Patch(bookmarksPath)
		if err != nil {
			return domain.Bookmark{}, transport("toggle pin", err)
		}
		if err := mapError(resp, "toggle pin"); err != nil {
			return domain.Bookmark{}, err
		}

		var updated []domain.Bookmark
		if err := decode(resp, &updated, "toggle pin"); err != nil {
			return domain.Bookmark{}, err
		}
		if len(updated) > 0 {
			return updated[0], nil
		}
	}
	return domain.Bookmark{}, domain.ErrNotFound
}

func (c *Client) getBookmark(ctx context.Context, ownerID, id string) (domain.Bookmark, error) {
	req, err := c.rows(ctx)
	if err != nil {
		return domain.Bookmark{}, err
	}

	resp, err := req.
		SetQueryParam("select", "*").
		SetQueryParam("id", "eq."+id).
		SetQueryParam("user_id", "eq."+ownerID).
		SetQueryParam("limit", "1").
		Get(bookmarksPath)
	if err != nil {
		return domain.Bookmark{}, transport("get bookmark", err)
	}
	if err := mapError(resp, "get bookmark"); err != nil {
		return domain.Bookmark{}, err
	}

	var found []domain.Bookmark
	if err := decode(resp, &found, "get bookmark"); err != nil {
		return domain.Bookmark{}, err
	}
	if len(found) == 0 {
		return domain.Bookmark{}, domain.ErrNotFound
	}
	return found[0], nil
}
