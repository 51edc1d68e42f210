package test_utils

import (
	"database/sql"
	"testing"

	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/klokku/revenue/internal/database"
	_ "modernc.org/sqlite"
)

// NewInMemoryDB opens an isolated in-memory SQLite database closed with the test.
func NewInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// SetupTestDB creates an in-memory SQLite database with every migration applied.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewInMemoryDB(t)

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		t.Fatalf("Failed to create sqlite driver: %v", err)
	}
	if err := database.Apply(driver, "sqlite"); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return db
}
