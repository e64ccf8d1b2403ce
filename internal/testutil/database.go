// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"playtime/internal/database"
)

// NewTestStore returns an in-memory store with the full schema applied.
// The store is closed automatically when the test finishes.
func NewTestStore(t *testing.T) *database.Store {
	t.Helper()

	store, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.MigrateUp(); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return store
}
