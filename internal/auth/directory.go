package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
)

// Directory owns user records and verifies secrets. The local drivers
// implement it through LocalDirectory; the hosted provider client
// implements it directly.
type Directory interface {
	Create(ctx context.Context, name, secret string, isAdmin bool) (domain.User, error)
	Authenticate(ctx context.Context, name, secret string) (domain.Identity, error)
	Resume(ctx context.Context, ident domain.Identity) error
	SignOut(ctx context.Context, ident domain.Identity) error
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository is the persistence contract of LocalDirectory.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	FindUserByName(ctx context.Context, name string) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
	InsertUser(ctx context.Context, u domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// LocalDirectory keeps bcrypt hashes in a UserRepository.
type LocalDirectory struct {
	repo  UserRepository
	cost  int
	dummy []byte // compared against when the name is unknown
	now   func() time.Time
	newID func() string
}

// NewLocalDirectory builds a directory over repo using bcrypt.DefaultCost.
func NewLocalDirectory(repo UserRepository) *LocalDirectory {
	return NewLocalDirectoryWithCost(repo, bcrypt.DefaultCost)
}

// NewLocalDirectoryWithCost is NewLocalDirectory with an explicit bcrypt cost.
func NewLocalDirectoryWithCost(repo UserRepository, cost int) *LocalDirectory {
	dummy, err := bcrypt.GenerateFromPassword([]byte("bookmarker-dummy-secret"), cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt cost %d rejected: %v", cost, err))
	}
	return &LocalDirectory{
		repo:  repo,
		cost:  cost,
		dummy: dummy,
		now:   time.Now,
		newID: utils.NewID,
	}
}

// Create hashes secret and inserts a new user.
// The repository reports ErrDuplicateName for a taken name.
func (d *LocalDirectory) Create(ctx context.Context, name, secret string, isAdmin bool) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), d.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           d.newID(),
		Name:         name,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    d.now().UTC(),
	}
	if err := d.repo.InsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Authenticate looks the user up by name and compares the bcrypt hash.
func (d *LocalDirectory) Authenticate(ctx context.Context, name, secret string) (domain.Identity, error) {
	u, err := d.repo.FindUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(secret))
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)); err != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return u.Identity(), nil
}

// Resume fails with ErrUnauthenticated once the slot's user is gone.
func (d *LocalDirectory) Resume(ctx context.Context, ident domain.Identity) error {
	if _, err := d.repo.FindUserByID(ctx, ident.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnauthenticated
		}
		return err
	}
	return nil
}

// SignOut has nothing to revoke locally.
func (d *LocalDirectory) SignOut(context.Context, domain.Identity) error {
	return nil
}

func (d *LocalDirectory) List(ctx context.Context) ([]domain.User, error) {
	return d.repo.ListUsers(ctx)
}

func (d *LocalDirectory) Delete(ctx context.Context, id string) error {
	return d.repo.DeleteUser(ctx, id)
}
