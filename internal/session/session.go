package session

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"dlux/internal/contextKey"
	"dlux/internal/types"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

type sessionData struct {
	User      *types.User
	CreatedAt time.Time
}

const (
	sessionKey      = "session"
	testCookieKey   = "testcookie"
	testCookieValue = "worked"
	LoginPath       = "/login"
)

func init() {
	gob.Register(sessionData{})
}

const DefaultTTL = 30 * time.Minute

type Manager struct {
	*scs.SessionManager
}

func NewManager(ttl time.Duration, secure bool) *Manager {
	return &Manager{SessionManager: newSessionManager(ttl, secure)}
}

func newSessionManager(ttl time.Duration, secure bool) *scs.SessionManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	manager := scs.New()
	manager.Store = memstore.New()
	manager.Lifetime = ttl
	manager.Cookie.Name = "dlux_session"
	manager.Cookie.Path = "/"
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = secure
	return manager
}

// CreateSession rotates the token and stores the user.
func (m *Manager) CreateSession(ctx context.Context, u *types.User) error {
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, sessionKey, sessionData{
		User:      u,
		CreatedAt: time.Now(),
	})
	return nil
}

// Flush drops all session data and the session token.
func (m *Manager) Flush(ctx context.Context) error {
	return m.Destroy(ctx)
}

// SetTestCookie marks the session so the next request can prove the
// browser keeps cookies.
func (m *Manager) SetTestCookie(ctx context.Context) {
	m.Put(ctx, testCookieKey, testCookieValue)
}

func (m *Manager) TestCookieWorked(ctx context.Context) bool {
	return m.GetString(ctx, testCookieKey) == testCookieValue
}

func (m *Manager) DeleteTestCookie(ctx context.Context) {
	m.Remove(ctx, testCookieKey)
}

func (m *Manager) getSession(r *http.Request) (sessionData, bool) {
	sess, ok := m.Get(r.Context(), sessionKey).(sessionData)
	if !ok || sess.User == nil {
		return sessionData{}, false
	}
	return sess, true
}

func (m *Manager) UserFromContext(ctx context.Context) (*types.User, bool) {
	if ctx == nil {
		return nil, false
	}
	if u, ok := contextKey.AuthUserFromContext(ctx); ok {
		return u, true
	}
	if sess, ok := m.Get(ctx, sessionKey).(sessionData); ok && sess.User != nil {
		return sess.User, true
	}
	return nil, false
}

func (m *Manager) DestroySession(ctx context.Context) error {
	return m.Destroy(ctx)
}

// RequireUser redirects anonymous requests to the login page and puts the
// session user on the request context.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.getSession(r)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextKey.WithAuthUser(r.Context(), sess.User)))
	})
}

// SessionMiddleware is RequireUser for huma operations. API callers get a
// 401 instead of a redirect.
func (m *Manager) SessionMiddleware(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		req, _ := humachi.Unwrap(ctx)

		sess, ok := m.getSession(req)
		if !ok {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "login required")
			return
		}

		next(huma.WithContext(ctx, contextKey.WithAuthUser(ctx.Context(), sess.User)))
	}
}
