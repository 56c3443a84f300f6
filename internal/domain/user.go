package domain

import (
	"context"
	"strings"
	"time"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit
)

// User is a registered account.
type User struct {
	// ID is the canonical unique identifier.
	ID string `json:"id"`

	// Name is the login key. For the hosted provider it is an e-mail address.
	Name string `json:"username"`

	// PasswordHash is the bcrypt hash of the secret. Empty when the secret
	// is held by a remote provider.
	PasswordHash string `json:"password_hash,omitempty"`

	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the session view of u. The secret is never carried.
func (u User) Identity() Identity {
	return Identity{
		UserID:  u.ID,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
	}
}

// Identity is the content of a session slot.
type Identity struct {
	UserID  string `json:"id"`
	Name    string `json:"username"`
	IsAdmin bool   `json:"is_admin"`

	// AccessToken is the provider token used for row-scoped remote calls.
	AccessToken string `json:"access_token,omitempty"`
}

// ValidateCredentials checks the registration rules for a name/secret pair
// and returns the trimmed name.
func ValidateCredentials(name, secret string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < MinUsernameLength {
		return "", Invalid("username", "Username must be at least %d characters long", MinUsernameLength)
	}
	if len(secret) < MinPasswordLength {
		return "", Invalid("password", "Password must be at least %d characters long", MinPasswordLength)
	}
	if len(secret) > MaxPasswordLength {
		return "", Invalid("password", "Password must be at most %d bytes long", MaxPasswordLength)
	}
	return name, nil
}

type accessTokenKey struct{}

// WithAccessToken attaches a provider access token to ctx.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the provider token attached to ctx, if any.
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
