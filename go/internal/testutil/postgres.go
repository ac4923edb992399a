// Package testutil provides shared helpers for database-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/mcdev12/livepoll/go/internal/dbschema"
)

// DatabaseURLEnv names the Postgres URL used by integration tests.
const DatabaseURLEnv = "LIVEPOLL_TEST_DATABASE_URL"

// OpenTestDB connects to the test database with a fresh schema. The test is
// skipped when no database is configured.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping Postgres test", DatabaseURLEnv)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		DROP TABLE IF EXISTS votes CASCADE;
		DROP TABLE IF EXISTS students CASCADE;
		DROP TABLE IF EXISTS poll_options CASCADE;
		DROP TABLE IF EXISTS polls CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}

	if err := dbschema.Apply(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}
