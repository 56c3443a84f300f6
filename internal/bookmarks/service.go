// Package bookmarks is the per-user bookmark store. Every operation is
// scoped to the identity held by the caller's session.
package bookmarks

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
)

// Repository persists bookmarks. Every call names the owner explicitly.
type Repository interface {
	ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
	InsertBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, ownerID, id string) error
	TogglePin(ctx context.Context, ownerID, id string, at time.Time) (domain.Bookmark, error)
}

// Session yields the acting user.
type Session interface {
	CurrentUser() (domain.Identity, bool)
}

// ImportResult counts the outcome of a bulk import.
type ImportResult struct {
	Imported int
	Skipped  int
}

type Service struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
		now:    time.Now,
		newID:  utils.NewID,
	}
}

// owner resolves the session user and attaches its provider token to ctx.
func owner(ctx context.Context, sess Session) (context.Context, domain.Identity, error) {
	ident, ok := sess.CurrentUser()
	if !ok {
		return ctx, domain.Identity{}, domain.ErrUnauthenticated
	}
	if ident.AccessToken != "" {
		ctx = domain.WithAccessToken(ctx, ident.AccessToken)
	}
	return ctx, ident, nil
}

// List returns the owner's bookmarks in storage order.
func (s *Service) List(ctx context.Context, sess Session) ([]domain.Bookmark, error) {
	ctx, ident, err := owner(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBookmarks(ctx, ident.UserID)
}

// Save validates and stores a new bookmark.
func (s *Service) Save(ctx context.Context, sess Session, rawURL, note string, pinned bool) (domain.Bookmark, error) {
	ctx, ident, err := owner(ctx, sess)
	if err != nil {
		return domain.Bookmark{}, err
	}

	entry, err := domain.ValidateEntry(domain.Entry{URL: rawURL, Note: note})
	if err != nil {
		return domain.Bookmark{}, err
	}

	b := domain.Bookmark{
		ID:        s.newID(),
		OwnerID:   ident.UserID,
		URL:       entry.URL,
		Note:      entry.Note,
		Pinned:    pinned,
		CreatedAt: s.now().UTC(),
	}

	saved, err := s.repo.InsertBookmark(ctx, b)
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.logger.Debug("bookmark saved",
		logger.String("user_id", ident.UserID),
		logger.String("bookmark_id", saved.ID))
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, sess Session, id string) error {
	ctx, ident, err := owner(ctx, sess)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBookmark(ctx, ident.UserID, id); err != nil {
		return err
	}

	s.logger.Debug("bookmark deleted",
		logger.String("user_id", ident.UserID),
		logger.String("bookmark_id", id))
	return nil
}

// TogglePin flips the pinned flag and stamps the update time.
func (s *Service) TogglePin(ctx context.Context, sess Session, id string) (domain.Bookmark, error) {
	ctx, ident, err := owner(ctx, sess)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return s.repo.TogglePin(ctx, ident.UserID, id, s.now().UTC())
}

// Import saves every valid entry and counts the invalid ones. Storage
// errors other than validation stop the import.
func (s *Service) Import(ctx context.Context, sess Session, entries []domain.Entry) (ImportResult, error) {
	var res ImportResult
	if _, _, err := owner(ctx, sess); err != nil {
		return res, err
	}

	for _, e := range entries {
		if _, err := domain.ValidateEntry(e); err != nil {
			res.Skipped++
			continue
		}
		if _, err := s.Save(ctx, sess, e.URL, e.Note, false); err != nil {
			return res, err
		}
		res.Imported++
	}

	ident, _ := sess.CurrentUser()
	s.logger.Info("bookmarks imported",
		logger.String("user_id", ident.UserID),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped))
	return res, nil
}
