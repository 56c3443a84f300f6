// Package supabase talks to a hosted Supabase project: GoTrue for accounts
// and PostgREST for the user_profiles and bookmarks tables.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jackc/pgerrcode"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string // optional, enables the admin endpoints
	Timeout    time.Duration
}

// Client implements auth.Directory and bookmarks.Repository against one
// project. Row-scoped calls carry the user's access token taken from ctx.
type Client struct {
	http       *resty.Client
	anonKey    string
	serviceKey string
	logger     logger.Logger
	now        func() time.Time
}

func New(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:       cli,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		logger:     log,
		now:        time.Now,
	}
}

// Ping checks that the auth service answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.anon(ctx).Get("/auth/v1/health")
	if err != nil {
		return domain.NetworkFailure(err)
	}
	return mapError(resp, "health")
}

// anon is a request authorised with the public key only.
func (c *Client) anon(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.anonKey)
}

// user is a request on behalf of the token holder.
func (c *Client) user(ctx context.Context, token string) *resty.Request {
	return c.anon(ctx).SetAuthToken(token)
}

// admin is a request with the service-role key.
func (c *Client) admin(ctx context.Context) (*resty.Request, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("%w: service key not configured", domain.ErrPermissionDenied)
	}
	return c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.serviceKey).
		SetAuthToken(c.serviceKey), nil
}

// apiError covers both the GoTrue and PostgREST error bodies.
type apiError struct {
	Code        any    `json:"code"`
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	ErrorName   string `json:"error"`
	Description string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.Description, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// sqlState is the Postgres error code PostgREST passes through, or "".
func (e apiError) sqlState() string {
	code, _ := e.Code.(string)
	return code
}

func (e apiError) duplicate() bool {
	switch e.ErrorCode {
	case "user_already_exists", "email_exists":
		return true
	}
	if e.sqlState() == pgerrcode.UniqueViolation {
		return true
	}
	return strings.Contains(strings.ToLower(e.text()), "already registered")
}

// mapError turns a non-2xx response into a domain error kind.
func mapError(resp *resty.Response, op string) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	var body apiError
	_ = json.Unmarshal(resp.Body(), &body)
	msg := body.text()
	if msg == "" {
		msg = strings.TrimSpace(string(resp.Body()))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case body.duplicate() || status == http.StatusConflict:
		return domain.ErrDuplicateName
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, msg)
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case body.sqlState() == pgerrcode.InvalidTextRepresentation:
		// a malformed uuid names no row
		return domain.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.Invalid("", "%s", msg)
	default:
		return domain.NetworkFailure(fmt.Errorf("%s: http %d: %s", op, status, msg))
	}
}

func decode(resp *resty.Response, v any, what string) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return domain.NetworkFailure(fmt.Errorf("decode %s response: %w", what, err))
	}
	return nil
}

// transport wraps a failed round trip.
func transport(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return domain.NetworkFailure(fmt.Errorf("%s request: %w", op, err))
}
