package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// Session is the slot the service reads the acting user from and writes
// the authenticated identity to.
type Session interface {
	CurrentUser() (domain.Identity, bool)
	Login(ctx context.Context, ident domain.Identity) error
	Logout(ctx context.Context) error
}

// Service is the credential store: registration, login, logout and the
// admin-only user management operations.
type Service struct {
	dir    Directory
	logger logger.Logger
}

func NewService(dir Directory, log logger.Logger) *Service {
	return &Service{dir: dir, logger: log}
}

// Register creates a non-admin user.
func (s *Service) Register(ctx context.Context, name, secret string) (domain.User, error) {
	name, err := domain.ValidateCredentials(name, secret)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.dir.Create(ctx, name, secret, false)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user registered",
		logger.String("user_id", u.ID),
		logger.String("username", u.Name))
	return u, nil
}

// Login authenticates and fills the session slot.
func (s *Service) Login(ctx context.Context, sess Session, name, secret string) (domain.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" || secret == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	ident, err := s.dir.Authenticate(ctx, name, secret)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.Info("login rejected", logger.String("username", name))
		}
		return domain.Identity{}, err
	}

	if err := sess.Login(ctx, ident); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("user logged in",
		logger.String("user_id", ident.UserID),
		logger.Bool("admin", ident.IsAdmin))
	return ident, nil
}

// Logout signs out at the directory (best effort) and clears the slot.
func (s *Service) Logout(ctx context.Context, sess Session) error {
	if ident, ok := sess.CurrentUser(); ok {
		if err := s.dir.SignOut(ctx, ident); err != nil {
			s.logger.Warn("sign out failed",
				logger.String("user_id", ident.UserID),
				logger.Error(err))
		}
	}
	return sess.Logout(ctx)
}

// Resume checks that a slot identity is still backed by a live account.
func (s *Service) Resume(ctx context.Context, ident domain.Identity) error {
	return s.dir.Resume(ctx, ident)
}

// ListUsers returns every user. Admin only.
func (s *Service) ListUsers(ctx context.Context, sess Session) ([]domain.User, error) {
	if _, err := requireAdmin(sess); err != nil {
		return nil, err
	}

	users, err := s.dir.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// DeleteUser removes user id. The actor must be an admin and must not
// target itself.
func (s *Service) DeleteUser(ctx context.Context, sess Session, id string) error {
	actor, err := requireAdmin(sess)
	if err != nil {
		return err
	}
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrPermissionDenied)
	}

	if err := s.dir.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		logger.String("user_id", id),
		logger.String("deleted_by", actor.UserID))
	return nil
}

// Provision creates the admin account name if it does not exist yet.
// It replaces any built-in default credentials: nothing is created unless
// the operator supplies both values.
func (s *Service) Provision(ctx context.Context, name, secret string) error {
	if name == "" && secret == "" {
		s.logger.Info("admin provisioning skipped, no credentials configured")
		return nil
	}

	name, err := domain.ValidateCredentials(name, secret)
	if err != nil {
		return fmt.Errorf("invalid admin credentials: %w", err)
	}

	u, err := s.dir.Create(ctx, name, secret, true)
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		s.logger.Info("admin already provisioned", logger.String("username", name))
		return nil
	case err != nil:
		return fmt.Errorf("failed to provision admin: %w", err)
	}

	s.logger.Info("admin provisioned",
		logger.String("user_id", u.ID),
		logger.String("username", u.Name))
	return nil
}

func requireAdmin(sess Session) (domain.Identity, error) {
	actor, ok := sess.CurrentUser()
	if !ok || !actor.IsAdmin {
		return domain.Identity{}, domain.ErrPermissionDenied
	}
	return actor, nil
}
