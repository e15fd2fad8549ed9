package repository

import (
	"context"
	"errors"
	"testing"

	"taskTracker/internal/apperr"
	"taskTracker/internal/testutil"
)

func TestUserRepository_CreateAndQueries(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewUserRepository(d)
	ctx := context.Background()

	// Create
	u, err := repo.Create(ctx, "alice", "pbkdf2:sha256:1$salt$abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected created user: %+v", u)
	}

	// GetByID
	g, err := repo.GetByID(ctx, u.ID)
	if err != nil || g == nil || g.Username != "alice" || g.PasswordHash != "pbkdf2:sha256:1$salt$abc" {
		t.Fatalf("get by id: %v %+v", err, g)
	}

	// GetByUsername
	g2, err := repo.GetByUsername(ctx, "alice")
	if err != nil || g2 == nil || g2.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, g2)
	}

	// Missing rows are nil, nil
	missing, err := repo.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing user, got %+v err=%v", missing, err)
	}

	// List
	list, err := repo.List(ctx, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewUserRepository(d)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "alice", "h1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, "alice", "h2")
	if !errors.Is(err, apperr.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	list, err := repo.List(ctx, 10, 0)
	if err != nil || len(list) != 1 || list[0].PasswordHash != "h1" {
		t.Fatalf("expected exactly the first row to remain: %+v err=%v", list, err)
	}
}
