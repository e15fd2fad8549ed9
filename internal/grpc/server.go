package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"taskTracker/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry reporting storage reachability.
const ServiceName = "tasktracker.Storage"

const (
	probeInterval = 15 * time.Second
	probeTimeout  = 3 * time.Second
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health wraps the standard health server and keeps it in step with the
// database.
type Health struct {
	srv *health.Server
	db  Pinger
	log *slog.Logger
}

// NewHealth returns a health service that reports NOT_SERVING until the first probe.
func NewHealth(db Pinger, log *slog.Logger) *Health {
	h := &Health{srv: health.NewServer(), db: db, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Probe pings the database once and updates the reported status.
func (h *Health) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("health probe failed", "error", err)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

func (h *Health) watch(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}

// NewServer builds a gRPC server exposing only the health service,
// instrumented with OpenTelemetry.
func NewServer(h *Health) *grpc.Server {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, h.srv)
	return srv
}

// StartGRPC starts the health server on cfg.GRPC.Address and returns a
// shutdown function. An empty address disables the server.
func StartGRPC(cfg *config.Config, db Pinger, log *slog.Logger) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}
	if cfg.GRPC.Address == "" {
		log.Info("grpc health server disabled")
		return func(context.Context) error { return nil }, nil
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return nil, err
	}
	return Serve(lis, db, log), nil
}

// Serve runs the health server on lis until the returned shutdown function
// is called.
func Serve(lis net.Listener, db Pinger, log *slog.Logger) func(context.Context) error {
	h := NewHealth(db, log)
	h.Probe(context.Background())
	srv := NewServer(h)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go h.watch(watchCtx, probeInterval)
	go func() {
		log.Info("grpc listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			log.Error("grpc serve", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		stopWatch()
		h.srv.Shutdown()
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}
}
