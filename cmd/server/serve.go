package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskTracker/internal/auth"
	grpcserver "taskTracker/internal/grpc"
	"taskTracker/internal/secret"
	"taskTracker/internal/telemetry"
	"taskTracker/internal/upload"
	"taskTracker/internal/web"
	"taskTracker/repository"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info("configuration loaded", "config", a.cfg.String())

	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn("shutdown telemetry", "error", err)
		}
	}()

	d, err := a.openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer a.closeDB(d)

	tasks := repository.NewTaskRepository(d)
	key, err := a.cfg.CredentialKeyBytes()
	if err != nil {
		return err
	}
	if key != nil {
		sealer, err := secret.NewAESGCM(key)
		if err != nil {
			return fmt.Errorf("credential key: %w", err)
		}
		tasks.WithSealer(sealer)
	}
	if !tasks.SealsSecrets() {
		a.log.Warn("CREDENTIAL_KEY is not set; external system secrets will be stored in clear")
	}

	uploads, err := upload.NewStore(a.cfg.Upload.Dir, a.cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}
	creds := auth.NewCredentials(repository.NewUserRepository(d))
	gate, err := auth.NewGate(creds, auth.GateConfig{
		Secret:       a.cfg.Session.Secret,
		TTL:          a.cfg.Session.TTL,
		SecureCookie: a.cfg.Session.SecureCookie,
	})
	if err != nil {
		return err
	}

	handler, err := web.NewHandler(a.log, web.Deps{
		Credentials: creds,
		Gate:        gate,
		Categories:  repository.NewCategoryRepository(d),
		Persons:     repository.NewPersonRepository(d),
		Tasks:       tasks,
		Uploads:     uploads,
		DB:          d,
	}, 0)
	if err != nil {
		return err
	}

	stopHTTP, err := web.StartHTTP(a.cfg, handler, a.log)
	if err != nil {
		return err
	}
	stopGRPC, err := grpcserver.StartGRPC(a.cfg, d, a.log)
	if err != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(fmt.Errorf("start grpc: %w", err), stopHTTP(sctx))
	}

	go sweepSessions(ctx, gate.Sessions(), a.cfg.Session.TTL)

	<-ctx.Done()
	a.log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(stopHTTP(sctx), stopGRPC(sctx))
}

// sweepSessions drops expired sessions so abandoned logins do not
// accumulate between lookups.
func sweepSessions(ctx context.Context, s *auth.SessionStore, ttl time.Duration) {
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
