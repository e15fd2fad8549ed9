package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskTracker/internal/apperr"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// GateConfig configures session issuance.
type GateConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

// Gate issues sessions on login and admits only requests that carry one.
type Gate struct {
	creds    *Credentials
	sessions *SessionStore
	secret   string
	secure   bool
	now      func() time.Time
}

// NewGate builds a gate over creds. The secret signs session cookies.
func NewGate(creds *Credentials, cfg GateConfig) (*Gate, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if creds == nil {
		return nil, errors.New("credentials are required")
	}
	return &Gate{
		creds:    creds,
		sessions: NewSessionStore(cfg.TTL),
		secret:   cfg.Secret,
		secure:   cfg.SecureCookie,
		now:      time.Now,
	}, nil
}

// WithClock overrides the time source for both the gate and its store.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	g.sessions.now = now
	return g
}

// Sessions exposes the underlying store.
func (g *Gate) Sessions() *SessionStore { return g.sessions }

// Login verifies the credentials and opens a session. The returned token is
// the value for the session cookie.
func (g *Gate) Login(ctx context.Context, username, password string) (string, *Principal, error) {
	u, err := g.creds.Verify(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	sess := g.sessions.Create(u.ID, u.Username)
	token, err := signSessionToken(g.secret, sess.ID, u.ID, g.now(), sess.ExpiresAt)
	if err != nil {
		g.sessions.Delete(sess.ID)
		return "", nil, err
	}
	return token, &Principal{UserID: u.ID, Username: u.Username, SessionID: sess.ID}, nil
}

// Authenticate resolves a session token to its principal.
func (g *Gate) Authenticate(token string) (*Principal, error) {
	sid, userID, err := parseSessionToken(token, g.secret, g.now, false)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	sess, ok := g.sessions.Get(sid)
	if !ok || sess.UserID != userID {
		return nil, apperr.ErrUnauthenticated
	}
	return &Principal{UserID: sess.UserID, Username: sess.Username, SessionID: sess.ID}, nil
}

// RequireSession returns the principal for the request's session cookie or
// apperr.ErrUnauthenticated.
func (g *Gate) RequireSession(r *http.Request) (*Principal, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	return g.Authenticate(c.Value)
}

// Logout ends the session named by token. It is safe to call with an
// expired, unknown or empty token.
func (g *Gate) Logout(token string) {
	sid, _, err := parseSessionToken(token, g.secret, g.now, true)
	if err != nil {
		return
	}
	g.sessions.Delete(sid)
}

// SetCookie writes the session cookie.
func (g *Gate) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  g.now().Add(g.sessions.ttl),
	})
}

// ClearCookie expires the session cookie on the client.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Middleware admits requests with a live session, storing the principal in
// the request context. Others are redirected to loginPath with 303.
func (g *Gate) Middleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := g.RequireSession(r)
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
