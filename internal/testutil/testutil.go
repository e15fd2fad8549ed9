package testutil

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"

	"taskTracker/internal/db"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The database is closed through t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache keeps the database alive for the lifetime of the pool.
	d, err := db.Open(db.DriverCGO, "file:"+unsafeName.ReplaceAllString(name, "_")+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CookieFrom returns the named cookie set on resp, or nil.
func CookieFrom(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
