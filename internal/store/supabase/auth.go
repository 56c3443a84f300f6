package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// usersPerPage is the admin listing page size.
const usersPerPage = 200

type gotrueUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	AppMetadata struct {
		IsAdmin bool `json:"is_admin"`
	} `json:"app_metadata"`
}

func (u gotrueUser) toUser() domain.User {
	return domain.User{
		ID:        u.ID,
		Name:      u.Email,
		IsAdmin:   u.AppMetadata.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	User        gotrueUser `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Create signs a user up. Admins are created through the admin API so the
// flag lands in app_metadata, which users cannot edit themselves.
func (c *Client) Create(ctx context.Context, name, secret string, isAdmin bool) (domain.User, error) {
	if isAdmin {
		return c.createAdmin(ctx, name, secret)
	}

	resp, err := c.anon(ctx).
		SetBody(credentials{Email: name, Password: secret}).
		Post("/auth/v1/signup")
	if err != nil {
		return domain.User{}, transport("signup", err)
	}
	if err := mapError(resp, "signup"); err != nil {
		return domain.User{}, err
	}

	// With auto-confirm the body is a session, otherwise the bare user.
	var session tokenResponse
	if err := decode(resp, &session, "signup"); err != nil {
		return domain.User{}, err
	}
	if session.User.ID != "" {
		return session.User.toUser(), nil
	}

	var u gotrueUser
	if err := decode(resp, &u, "signup"); err != nil {
		return domain.User{}, err
	}
	return u.toUser(), nil
}

func (c *Client) createAdmin(ctx context.Context, name, secret string) (domain.User, error) {
	req, err := c.admin(ctx)
	if err != nil {
		return domain.User{}, err
	}

	body := map[string]any{
		"email":         name,
		"password":      secret,
		"email_confirm": true,
		"app_metadata":  map[string]any{"is_admin": true},
	}
	resp, err := req.SetBody(body).Post("/auth/v1/admin/users")
	if err != nil {
		return domain.User{}, transport("create admin", err)
	}
	if err := mapError(resp, "create admin"); err != nil {
		return domain.User{}, err
	}

	var u gotrueUser
	if err := decode(resp, &u, "create admin"); err != nil {
		return domain.User{}, err
	}
	return u.toUser(), nil
}

// Authenticate exchanges the password for an access token and refreshes
// the profile row.
func (c *Client) Authenticate(ctx context.Context, name, secret string) (domain.Identity, error) {
	resp, err := c.anon(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(credentials{Email: name, Password: secret}).
		Post("/auth/v1/token")
	if err != nil {
		return domain.Identity{}, transport("sign in", err)
	}
	if err := mapError(resp, "sign in"); err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}

	var session tokenResponse
	if err := decode(resp, &session, "sign in"); err != nil {
		return domain.Identity{}, err
	}
	if session.User.ID == "" {
		sub, err := subject(session.AccessToken)
		if err != nil {
			return domain.Identity{}, domain.NetworkFailure(err)
		}
		session.User.ID = sub
	}

	ident := session.User.toUser().Identity()
	ident.AccessToken = session.AccessToken

	c.upsertProfile(ctx, ident)
	return ident, nil
}

// upsertProfile keeps user_profiles in step with the auth user. Failures
// are logged only.
func (c *Client) upsertProfile(ctx context.Context, ident domain.Identity) {
	username, _, _ := strings.Cut(ident.Name, "@")
	row := map[string]any{
		"id":         ident.UserID,
		"username":   username,
		"updated_at": c.now().UTC(),
	}

	resp, err := c.user(ctx, ident.AccessToken).
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetBody([]map[string]any{row}).
		Post("/rest/v1/user_profiles")
	if err == nil {
		err = mapError(resp, "upsert profile")
	}
	if err != nil {
		c.logger.Error("failed to upsert user profile",
			logger.String("user_id", ident.UserID),
			logger.Error(err))
	}
}

// Resume fails with ErrUnauthenticated once the token expired or the
// provider stopped accepting it.
func (c *Client) Resume(ctx context.Context, ident domain.Identity) error {
	if ident.AccessToken == "" || c.expired(ident.AccessToken) {
		return domain.ErrUnauthenticated
	}

	resp, err := c.user(ctx, ident.AccessToken).Get("/auth/v1/user")
	if err != nil {
		return transport("get user", err)
	}
	if err := mapError(resp, "get user"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnauthenticated
		}
		return err
	}

	var u gotrueUser
	if err := decode(resp, &u, "get user"); err != nil {
		return err
	}
	if u.ID != ident.UserID {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (c *Client) SignOut(ctx context.Context, ident domain.Identity) error {
	if ident.AccessToken == "" {
		return nil
	}
	resp, err := c.user(ctx, ident.AccessToken).Post("/auth/v1/logout")
	if err != nil {
		return transport("sign out", err)
	}
	return mapError(resp, "sign out")
}

// List pages through every auth user.
func (c *Client) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	for page := 1; ; page++ {
		req, err := c.admin(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := req.
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("per_page", strconv.Itoa(usersPerPage)).
			Get("/auth/v1/admin/users")
		if err != nil {
			return nil, transport("list users", err)
		}
		if err := mapError(resp, "list users"); err != nil {
			return nil, err
		}

		var body struct {
			Users []gotrueUser `json:"users"`
		}
		if err := decode(resp, &body, "list users"); err != nil {
			return nil, err
		}
		for _, u := range body.Users {
			users = append(users, u.toUser())
		}
		if len(body.Users) < usersPerPage {
			return users, nil
		}
	}
}

// Delete removes the auth user; the bookmarks foreign key cascades.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.admin(ctx)
	if err != nil {
		return err
	}

	resp, err := req.Delete("/auth/v1/admin/users/" + url.PathEscape(id))
	if err != nil {
		return transport("delete user", err)
	}
	return mapError(resp, "delete user")
}

// subject reads sub from a provider token without verifying it. The token
// came straight from the provider over TLS.
func subject(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("access token has no subject")
	}
	return claims.Subject, nil
}

// expired reports whether the token's exp claim has passed. Tokens that
// cannot be parsed are left for the provider to judge.
func (c *Client) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && c.now().After(claims.ExpiresAt.Time)
}
