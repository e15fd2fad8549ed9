package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"taskTracker/internal/config"
	"taskTracker/internal/logging"
	"taskTracker/internal/testutil"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flakyDB struct{ down atomic.Bool }

func (f *flakyDB) PingContext(context.Context) error {
	if f.down.Load() {
		return errors.New("database is down")
	}
	return nil
}

func dialHealth(t *testing.T, addr string) healthpb.HealthClient {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestServeReportsServing(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	shutdown := Serve(lis, d, logging.Discard())
	defer func() { _ = shutdown(context.Background()) }()

	client := dialHealth(t, lis.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, svc := range []string{"", ServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("check %q: status %v, want SERVING", svc, resp.GetStatus())
		}
	}
}

func TestProbeTracksDatabase(t *testing.T) {
	db := &flakyDB{}
	h := NewHealth(db, logging.Discard())
	ctx := context.Background()

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		return resp.GetStatus()
	}

	if got := status(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("before probe: %v", got)
	}
	h.Probe(ctx)
	if got := status(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("after probe: %v", got)
	}
	db.down.Store(true)
	h.Probe(ctx)
	if got := status(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("db down: %v", got)
	}
}

func TestStartGRPCDisabled(t *testing.T) {
	cfg := &config.Config{}
	shutdown, err := StartGRPC(cfg, &flakyDB{}, logging.Discard())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStartGRPCShutdown(t *testing.T) {
	cfg := &config.Config{GRPC: config.GRPCConfig{Address: "127.0.0.1:0"}}
	shutdown, err := StartGRPC(cfg, &flakyDB{}, logging.Discard())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
