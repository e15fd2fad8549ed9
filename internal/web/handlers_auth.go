package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"taskTracker/internal/auth"
)

func NewLoginPageHandler(log *slog.Logger, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.render(w, http.StatusOK, "login", pageData{}); err != nil {
			writeErr(w, r, log, err)
		}
	}
}

func NewLoginHandler(log *slog.Logger, gate *auth.Gate, limit int64, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(w, r, limit); err != nil {
			writeErr(w, r, log, err)
			return
		}
		in := readCredentialsForm(r)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		token, p, err := gate.Login(ctx, in.Username, in.Password)
		if err != nil {
			log.Info("login rejected", "username", in.Username)
			writeErr(w, r, log, err)
			return
		}
		gate.SetCookie(w, token)
		log.Info("login", "user_id", p.UserID)
		http.Redirect(w, r, indexPath, http.StatusSeeOther)
	}
}

func NewRegisterPageHandler(log *slog.Logger, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.render(w, http.StatusOK, "register", pageData{}); err != nil {
			writeErr(w, r, log, err)
		}
	}
}

func NewRegisterHandler(log *slog.Logger, creds *auth.Credentials, limit int64, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(w, r, limit); err != nil {
			writeErr(w, r, log, err)
			return
		}
		in := readCredentialsForm(r)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		u, err := creds.Register(ctx, in.Username, in.Password)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		log.Info("user registered", "user_id", u.ID)
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
}

// NewLogoutHandler ends the session (if any) and always clears the cookie.
func NewLogoutHandler(_ *slog.Logger, gate *auth.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(auth.SessionCookieName); err == nil {
			gate.Logout(c.Value)
		}
		gate.ClearCookie(w)
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
}
