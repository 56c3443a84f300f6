package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// ListBookmarks returns the bookmarks of ownerID in stored order
func (s *Store) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	return readCollection[domain.Bookmark](ctx, s.client, BookmarksKey(ownerID))
}

// InsertBookmark appends b to its owner's collection
func (s *Store) InsertBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	err := updateCollection(ctx, s.client, BookmarksKey(b.OwnerID), func(list []domain.Bookmark) ([]domain.Bookmark, error) {
		for _, existing := range list {
			if existing.ID == b.ID {
				return nil, domain.Invalid("id", "duplicate bookmark id %s", b.ID)
			}
		}
		return append(list, b), nil
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return b, nil
}

// DeleteBookmark removes bookmark id from ownerID's collection
func (s *Store) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	return updateCollection(ctx, s.client, BookmarksKey(ownerID), func(list []domain.Bookmark) ([]domain.Bookmark, error) {
		for i, b := range list {
			if b.ID == id {
				return append(list[:i:i], list[i+1:]...), nil
			}
		}
		return nil, domain.ErrNotFound
	})
}

// TogglePin flips the pinned flag of bookmark id and stamps at
func (s *Store) TogglePin(ctx context.Context, ownerID, id string, at time.Time) (domain.Bookmark, error) {
	var updated domain.Bookmark
	err := updateCollection(ctx, s.client, BookmarksKey(ownerID), func(list []domain.Bookmark) ([]domain.Bookmark, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Pinned = !list[i].Pinned
				stamp := at
				list[i].UpdatedAt = &stamp
				updated = list[i]
				return list, nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return updated, nil
}

// SweepOrphans deletes bookmark collections whose owner no longer exists.
// Each delete re-reads the users under WATCH, so an owner registered after
// the snapshot keeps its collection.
func (s *Store) SweepOrphans(ctx context.Context) (int, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}
	if s.afterSnapshot != nil {
		s.afterSnapshot()
	}

	removed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixBookmarks+"*", 0).Iterator()
	for iter.Next(ctx) {
		owner, err := ExtractOwnerID(iter.Val())
		if err != nil {
			continue
		}
		if _, ok := known[owner]; ok {
			continue
		}

		deleted, err := s.deleteOrphan(ctx, owner)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan bookmark collections: %w", err)
	}
	return removed, nil
}

// deleteOrphan drops owner's collection unless owner exists. A write to
// the users or the collection while it runs aborts the delete.
func (s *Store) deleteOrphan(ctx context.Context, owner string) (bool, error) {
	key := BookmarksKey(owner)
	deleted := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		users, err := readCollection[domain.User](ctx, tx, KeyUsers)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.ID == owner {
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}, KeyUsers, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		// Concurrent write; the next sweep looks again.
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to delete orphan collection: %w", err)
	}
	return deleted, nil
}
