package session

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
)

// SlotStore persists session slots by id.
type SlotStore interface {
	// LoadSlot returns nil, nil for an empty or expired slot.
	LoadSlot(ctx context.Context, id string) (*domain.Identity, error)
	SaveSlot(ctx context.Context, id string, ident domain.Identity, ttl time.Duration) error
	ClearSlot(ctx context.Context, id string) error
}

// Holder tracks the current user of one browser session. It holds at most
// one identity and is not safe for concurrent use: one request owns it.
type Holder struct {
	slots   SlotStore
	id      string
	ttl     time.Duration
	current *domain.Identity
}

// NewID returns a fresh slot id.
func NewID() string {
	return utils.NewID()
}

// Open loads slot id from slots. An empty id opens an anonymous holder
// with a fresh id.
func Open(ctx context.Context, slots SlotStore, id string, ttl time.Duration) (*Holder, error) {
	h := &Holder{slots: slots, id: id, ttl: ttl}
	if id == "" {
		h.id = NewID()
		return h, nil
	}

	ident, err := slots.LoadSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	h.current = ident
	return h, nil
}

// ID is the slot id the browser must present on its next request.
func (h *Holder) ID() string {
	return h.id
}

// Login stores ident in a freshly issued slot; the previous slot is dropped.
func (h *Holder) Login(ctx context.Context, ident domain.Identity) error {
	previous := h.id
	next := NewID()

	if err := h.slots.SaveSlot(ctx, next, ident, h.ttl); err != nil {
		return err
	}
	if previous != "" {
		if err := h.slots.ClearSlot(ctx, previous); err != nil {
			return err
		}
	}

	h.id = next
	h.current = &ident
	return nil
}

// Logout clears the slot.
func (h *Holder) Logout(ctx context.Context) error {
	h.current = nil
	return h.slots.ClearSlot(ctx, h.id)
}

func (h *Holder) CurrentUser() (domain.Identity, bool) {
	if h.current == nil {
		return domain.Identity{}, false
	}
	return *h.current, true
}

func (h *Holder) IsLoggedIn() bool {
	return h.current != nil
}

func (h *Holder) IsAdmin() bool {
	return h.current != nil && h.current.IsAdmin
}

type holderKey struct{}

// WithHolder attaches h to ctx.
func WithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// FromContext returns the holder attached by the session middleware.
func FromContext(ctx context.Context) (*Holder, bool) {
	h, ok := ctx.Value(holderKey{}).(*Holder)
	return h, ok && h != nil
}
