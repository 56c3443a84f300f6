package mw

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
)

// Resumer confirms that a stored identity is still valid.
type Resumer interface {
	Resume(ctx context.Context, ident domain.Identity) error
}

// Session opens the caller's session slot and attaches its holder to the
// request context. An identity whose user is gone or whose token was
// revoked is dropped before the handler runs.
func Session(signer *session.Signer, slots session.SlotStore, ttl time.Duration, resumer Resumer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			slotID := signer.SlotID(r)

			h, err := session.Open(ctx, slots, slotID, ttl)
			if err != nil {
				log.Error("session store unavailable", logger.Error(err))
				http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
				return
			}

			if ident, ok := h.CurrentUser(); ok {
				if err := resumer.Resume(ctx, ident); err != nil {
					if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrNotFound) {
						log.Info("dropping stale session",
							logger.String("user_id", ident.UserID),
							logger.Error(err))
						if err := h.Logout(ctx); err != nil {
							log.Warn("failed to clear stale session", logger.Error(err))
						}
						signer.ClearCookie(w)
					} else {
						// The identity is kept; the next request retries.
						log.Warn("could not confirm session", logger.Error(err))
					}
				}
			} else if slotID != "" && r.Method == http.MethodGet {
				// Expired slot behind a still valid cookie.
				signer.ClearCookie(w)
			}

			next.ServeHTTP(w, r.WithContext(session.WithHolder(ctx, h)))
		})
	}
}
