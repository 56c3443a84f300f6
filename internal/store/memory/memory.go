package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

type slot struct {
	ident     domain.Identity
	expiresAt time.Time
}

// Store keeps users, bookmarks and session slots in process memory.
// Bookmarks are kept per owner in insertion order.
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User       // ID -> User
	bookmarks map[string][]domain.Bookmark // owner ID -> bookmarks
	slots     map[string]slot              // slot ID -> identity
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		bookmarks: make(map[string][]domain.Bookmark),
		slots:     make(map[string]slot),
		now:       time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) FindUserByName(_ context.Context, name string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) FindUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) InsertUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Name == u.Name {
			return domain.ErrDuplicateName
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Bookmarks
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListBookmarks(_ context.Context, ownerID string) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.bookmarks[ownerID]
	out := make([]domain.Bookmark, len(list))
	copy(out, list)
	return out, nil
}

func (s *Store) InsertBookmark(_ context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bookmarks[b.OwnerID] {
		if existing.ID == b.ID {
			return domain.Bookmark{}, domain.Invalid("id", "duplicate bookmark id %s", b.ID)
		}
	}
	s.bookmarks[b.OwnerID] = append(s.bookmarks[b.OwnerID], b)
	return b, nil
}

func (s *Store) DeleteBookmark(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.bookmarks[ownerID]
	for i, b := range list {
		if b.ID == id {
			s.bookmarks[ownerID] = append(list[:i:i], list[i+1:]...)
			if len(s.bookmarks[ownerID]) == 0 {
				delete(s.bookmarks, ownerID)
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) TogglePin(_ context.Context, ownerID, id string, at time.Time) (domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.bookmarks[ownerID]
	for i := range list {
		if list[i].ID == id {
			list[i].Pinned = !list[i].Pinned
			stamp := at
			list[i].UpdatedAt = &stamp
			return list[i], nil
		}
	}
	return domain.Bookmark{}, domain.ErrNotFound
}

// SweepOrphans drops bookmark collections whose owner is gone.
func (s *Store) SweepOrphans(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for owner := range s.bookmarks {
		if _, ok := s.users[owner]; !ok {
			delete(s.bookmarks, owner)
			removed++
		}
	}
	return removed, nil
}

// ─────────────────────────────────────────────────────────────────
// Session slots
// ─────────────────────────────────────────────────────────────────

func (s *Store) LoadSlot(_ context.Context, id string) (*domain.Identity, error) {
	s.mu.RLock()
	sl, ok := s.slots[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !sl.expiresAt.IsZero() && s.now().After(sl.expiresAt) {
		s.mu.Lock()
		delete(s.slots, id)
		s.mu.Unlock()
		return nil, nil
	}
	ident := sl.ident
	return &ident, nil
}

func (s *Store) SaveSlot(_ context.Context, id string, ident domain.Identity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.slots[id] = slot{ident: ident, expiresAt: expiresAt}
	return nil
}

func (s *Store) ClearSlot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, id)
	return nil
}

// SweepExpiredSlots drops slots that were never loaded after expiry.
func (s *Store) SweepExpiredSlots(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sl := range s.slots {
		if !sl.expiresAt.IsZero() && now.After(sl.expiresAt) {
			delete(s.slots, id)
			removed++
		}
	}
	return removed, nil
}
