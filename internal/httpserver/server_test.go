package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarker/internal/auth"
	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/form"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/metrics"
	"github.com/MrSnakeDoc/bookmarker/internal/render"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
	"github.com/MrSnakeDoc/bookmarker/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	auth   *auth.Service
}

func newTestEnv(t *testing.T, burst int) *testEnv {
	t.Helper()

	log := logger.New("error", false)
	store := memory.NewStore()
	authSvc := auth.NewService(auth.NewLocalDirectoryWithCost(store, bcrypt.MinCost), log)
	bookmarkSvc := bookmarks.NewService(store, log)

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		TimeNow:         time.Now,
		Backend:         config.BackendMemory,
		Components:      map[string]deps.Pinger{"storage": store},
		Auth:            authSvc,
		Bookmarks:       bookmarkSvc,
		Form:            form.NewController(bookmarkSvc),
		Signer:          session.NewSigner(testSecret, time.Hour, false),
		Slots:           store,
		SessionTTL:      time.Hour,
		RateLimitBurst:  burst,
		RateLimitPerMin: 1,
		Metrics:         metrics.New(),
	}

	srv := New(&config.Config{ListenPort: ":0", RequestTimeout: 5 * time.Second}, log, d)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: store, auth: authSvc}
}

// browser returns a client with its own cookie jar.
func (e *testEnv) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func post(t *testing.T, c *http.Client, u string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func get(t *testing.T, c *http.Client, u string) (int, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func creds(name, password string) url.Values {
	return url.Values{"username": {name}, "password": {password}}
}

func currentView(t *testing.T, c *http.Client, base string) render.View {
	t.Helper()
	status, body := get(t, c, base+"/api/bookmarks")
	require.Equal(t, http.StatusOK, status, body)

	var v render.View
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestBookmarkFlow(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL
	c := env.browser(t)

	status, body := get(t, c, base+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `action="/login"`)

	status, body = post(t, c, base+"/register", creds("alice", "secret1"))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Registration successful! Please login.")

	status, body = post(t, c, base+"/register", creds("alice", "other-secret"))
	require.Equal(t, http.StatusConflict, status)
	require.Contains(t, body, "Username already exists!")

	status, body = post(t, c, base+"/login", creds("alice", "wrong-secret"))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, body, "Invalid username or password!")

	status, body = post(t, c, base+"/login", creds("alice", "secret1"))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Save a bookmark")

	// Save, then the new bookmark is first in All with position 1
	status, body = post(t, c, base+"/bookmarks", url.Values{"url": {"https://example.com"}, "note": {"read later"}})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, form.SavedFlash)
	require.Contains(t, body, `rel="noopener noreferrer"`)
	require.Contains(t, body, `class="url" href="https://example.com" target="_blank" rel="noopener noreferrer">https://example.com</a>`)

	v := currentView(t, c, base)
	require.Len(t, v.All, 1)
	require.Empty(t, v.Pinned)
	require.Equal(t, 1, v.All[0].Position)
	require.Equal(t, "read later", v.All[0].Note)
	require.False(t, v.All[0].Pinned)
	id := v.All[0].ID

	// Pin, then it is also first in Pinned
	status, _ = post(t, c, base+"/bookmarks/"+id+"/pin", nil)
	require.Equal(t, http.StatusOK, status)
	v = currentView(t, c, base)
	require.Len(t, v.Pinned, 1)
	require.Equal(t, id, v.Pinned[0].ID)
	require.Equal(t, 1, v.Pinned[0].Position)
	require.False(t, v.Pinned[0].CanDelete)

	// Rejected input keeps the fields and leaves the store unchanged
	status, body = post(t, c, base+"/bookmarks", url.Values{"url": {"not-a-url"}, "note": {"x"}})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "valid URL")
	require.Contains(t, body, `value="not-a-url"`)
	require.Len(t, currentView(t, c, base).All, 1)

	status, _ = post(t, c, base+"/bookmarks/unknown-id/delete", nil)
	require.Equal(t, http.StatusNotFound, status)

	// Delete, then absent from both panels
	status, _ = post(t, c, base+"/bookmarks/"+id+"/delete", nil)
	require.Equal(t, http.StatusOK, status)
	v = currentView(t, c, base)
	require.Empty(t, v.All)
	require.Empty(t, v.Pinned)
	require.True(t, v.Empty)

	status, _ = get(t, c, base+"/admin/users")
	require.Equal(t, http.StatusForbidden, status)

	status, _ = post(t, c, base+"/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = get(t, c, base+"/api/bookmarks")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminDeletesUser(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL
	require.NoError(t, env.auth.Provision(context.Background(), "root", "rootpass"))

	alice := env.browser(t)
	post(t, alice, base+"/register", creds("alice", "secret1"))
	status, _ := post(t, alice, base+"/login", creds("alice", "secret1"))
	require.Equal(t, http.StatusOK, status)

	admin := env.browser(t)
	status, _ = post(t, admin, base+"/login", creds("root", "rootpass"))
	require.Equal(t, http.StatusOK, status)

	status, body := get(t, admin, base+"/admin/users")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "alice")

	aliceUser, err := env.store.FindUserByName(context.Background(), "alice")
	require.NoError(t, err)
	rootUser, err := env.store.FindUserByName(context.Background(), "root")
	require.NoError(t, err)

	// No delete action for the admin's own row
	require.NotContains(t, body, "/admin/users/"+rootUser.ID+"/delete")
	require.Contains(t, body, "/admin/users/"+aliceUser.ID+"/delete")

	status, _ = post(t, admin, base+"/admin/users/"+rootUser.ID+"/delete", nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = post(t, admin, base+"/admin/users/"+aliceUser.ID+"/delete", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, body, "alice")

	status, _ = post(t, admin, base+"/admin/users/"+aliceUser.ID+"/delete", nil)
	require.Equal(t, http.StatusNotFound, status)

	// Alice's session is dropped on her next request
	status, _ = get(t, alice, base+"/api/bookmarks")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestImportHomepageBookmarks(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL
	c := env.browser(t)

	post(t, c, base+"/register", creds("alice", "secret1"))
	post(t, c, base+"/login", creds("alice", "secret1"))

	yamlContent := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Broken:
        - href: {{HOMEPAGE_VAR_BROKEN}}
`

	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	fw, err := mp.CreateFormFile("file", "bookmarks.yaml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(yamlContent))
	require.NoError(t, err)
	require.NoError(t, mp.Close())

	resp, err := c.Post(base+"/bookmarks/import", mp.FormDataContentType(), &buf)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Imported 1 bookmarks, skipped 1")

	v := currentView(t, c, base)
	require.Len(t, v.All, 1)
	require.Equal(t, "GH", v.All[0].Note)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, 1)
	base := env.server.URL
	c := env.browser(t)

	status, _ := post(t, c, base+"/login", creds("nobody", "whatever"))
	require.Equal(t, http.StatusUnauthorized, status)

	resp, err := c.PostForm(base+"/login", creds("nobody", "whatever"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestInfraEndpoints(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL
	c := env.browser(t)

	status, body := get(t, c, base+"/healthz")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"backend":"memory"`)

	status, body = get(t, c, base+"/readyz")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"ready":true`)

	status, body = get(t, c, base+"/infra")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"mode":"operational"`)

	status, body = get(t, c, base+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.True(t, strings.Contains(body, "bookmarker_http_requests_total"), "request counter missing")
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL

	req, err := http.NewRequest(http.MethodGet, base+"/api/bookmarks", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not.a.token"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFilterQuery(t *testing.T) {
	env := newTestEnv(t, 100)
	base := env.server.URL
	c := env.browser(t)

	post(t, c, base+"/register", creds("alice", "secret1"))
	post(t, c, base+"/login", creds("alice", "secret1"))
	post(t, c, base+"/bookmarks", url.Values{"url": {"https://go.dev/blog"}, "note": {"Go blog"}})
	post(t, c, base+"/bookmarks", url.Values{"url": {"https://cooking.test"}, "note": {"recipes"}})

	status, body := get(t, c, base+"/api/bookmarks?q=blog")
	require.Equal(t, http.StatusOK, status)
	var v render.View
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	require.Len(t, v.All, 1)
	require.Equal(t, "Go blog", v.All[0].Note)

	status, body = get(t, c, base+"/?q=nothing-matches")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "No bookmarks match")
}
