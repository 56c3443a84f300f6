package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "bookmarker_session"
	issuer     = "bookmarker"
)

// Signer issues and verifies the HS256 token that carries a slot id in
// the session cookie.
type Signer struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration, secure bool) *Signer {
	return &Signer{
		key:    []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Sign returns a token whose subject is slotID.
func (s *Signer) Sign(slotID string) (string, error) {
	if slotID == "" {
		return "", errors.New("empty slot id")
	}

	now := s.now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   slotID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the slot id.
func (s *Signer) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("session token has no subject")
	}
	return sub, nil
}

// SlotID returns the verified slot id from r's cookie, or "".
func (s *Signer) SlotID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	id, err := s.Verify(c.Value)
	if err != nil {
		return ""
	}
	return id
}

// WriteCookie sets the cookie for slotID.
func (s *Signer) WriteCookie(w http.ResponseWriter, slotID string) error {
	token, err := s.Sign(slotID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the cookie in the browser.
func (s *Signer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
