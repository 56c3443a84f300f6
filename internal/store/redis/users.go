package redis

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// ListUsers returns every stored user
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return readCollection[domain.User](ctx, s.client, KeyUsers)
}

// FindUserByName returns the user called name
func (s *Store) FindUserByName(ctx context.Context, name string) (domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Name == name {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// FindUserByID returns the user with id
func (s *Store) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// InsertUser appends u unless its name is taken
func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	return updateCollection(ctx, s.client, KeyUsers, func(users []domain.User) ([]domain.User, error) {
		for _, existing := range users {
			if existing.Name == u.Name {
				return nil, domain.ErrDuplicateName
			}
		}
		return append(users, u), nil
	})
}

// DeleteUser removes the user and its bookmark collection
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := updateCollection(ctx, s.client, KeyUsers, func(users []domain.User) ([]domain.User, error) {
		for i, u := range users {
			if u.ID == id {
				return append(users[:i:i], users[i+1:]...), nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return err
	}

	// Anything left behind by a racing write is picked up by SweepOrphans.
	if err := s.client.Del(ctx, BookmarksKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete bookmarks of %s: %w", id, err)
	}
	return nil
}
