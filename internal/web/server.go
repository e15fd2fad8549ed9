// Package web serves the browser-facing task tracker: login, task list,
// task creation, reference data and gated proof downloads.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"taskTracker/internal/auth"
	"taskTracker/internal/config"
	"taskTracker/internal/upload"
	"taskTracker/repository"
)

const (
	indexPath   = "/"
	loginPath   = "/login"
	mastersPath = "/masters"

	defaultTimeout = 5 * time.Second
	// Ceiling for bodies without a file part.
	formBodyLimit = 1 << 20
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Credentials *auth.Credentials
	Gate        *auth.Gate
	Categories  repository.CategoryRepositoryI
	Persons     repository.PersonRepositoryI
	Tasks       repository.TaskRepositoryI
	Uploads     *upload.Store
	DB          Pinger
}

func (d Deps) validate() error {
	switch {
	case d.Credentials == nil:
		return errors.New("credentials are required")
	case d.Gate == nil:
		return errors.New("session gate is required")
	case d.Categories == nil || d.Persons == nil || d.Tasks == nil:
		return errors.New("repositories are required")
	case d.Uploads == nil:
		return errors.New("upload store is required")
	case d.DB == nil:
		return errors.New("database is required")
	}
	return nil
}

// Register mounts every route on mux. Gated routes redirect to the login
// page when the request has no live session.
func Register(mux *http.ServeMux, log *slog.Logger, deps Deps, timeout time.Duration) error {
	if err := deps.validate(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p, err := loadPages()
	if err != nil {
		return err
	}
	gated := deps.Gate.Middleware(loginPath)

	// public
	mux.Handle("GET /healthz", NewHealthHandler(log, deps.DB, timeout))
	mux.Handle("GET /login", NewLoginPageHandler(log, p))
	mux.Handle("POST /login", NewLoginHandler(log, deps.Gate, formBodyLimit, timeout))
	mux.Handle("GET /register", NewRegisterPageHandler(log, p))
	mux.Handle("POST /register", NewRegisterHandler(log, deps.Credentials, formBodyLimit, timeout))
	mux.Handle("GET /logout", NewLogoutHandler(log, deps.Gate))

	// tasks
	mux.Handle("GET /{$}", gated(NewListTasksHandler(log, deps.Tasks, p, timeout)))
	mux.Handle("GET /add", gated(NewAddTaskPageHandler(log, deps.Categories, deps.Persons, p, timeout)))
	mux.Handle("POST /add", gated(NewCreateTaskHandler(log, deps.Tasks, deps.Uploads, timeout)))
	mux.Handle("GET /uploads/{name}", gated(NewServeUploadHandler(log, deps.Uploads)))

	// reference data
	mux.Handle("GET /masters", gated(NewMastersPageHandler(log, deps.Categories, deps.Persons, p, timeout)))
	mux.Handle("POST /masters", gated(NewCreateMastersHandler(log, deps.Categories, deps.Persons, formBodyLimit, timeout)))
	return nil
}

// NewHandler builds the full HTTP handler, observability middleware included.
func NewHandler(log *slog.Logger, deps Deps, timeout time.Duration) (http.Handler, error) {
	mux := http.NewServeMux()
	if err := Register(mux, log, deps, timeout); err != nil {
		return nil, err
	}
	return withObservability(log, mux), nil
}

// StartHTTP listens on cfg.HTTP.Address and serves h in the background. The
// returned function shuts the server down gracefully.
func StartHTTP(cfg *config.Config, h http.Handler, log *slog.Logger) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}
	lis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		return nil, fmt.Errorf("listen http: %w", err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	go func() {
		log.Info("http listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve", "error", err)
		}
	}()
	return srv.Shutdown, nil
}
