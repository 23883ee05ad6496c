package testsupport

import (
	"context"
	"testing"
	"time"

	"lbxwatch/internal/config"
	"lbxwatch/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedSourceRows inserts source rows for tests using the provided store.
func SeedSourceRows(t testing.TB, st *store.Store, rows ...store.SourceRow) {
	t.Helper()

	if _, err := st.UpsertSourceRows(context.Background(), rows, time.Now().UTC()); err != nil {
		t.Fatalf("store.UpsertSourceRows: %v", err)
	}
}
