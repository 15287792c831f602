package core

import (
	"context"
	"path/filepath"
	"testing"

	"discoverycore/internal/infra/persistence/memory"
	"discoverycore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("DISCOVERYCORE_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("DISCOVERYCORE_STORAGE_DRIVER", "")
	t.Setenv("DISCOVERYCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "default.db"))

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqliteStore, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	if _, err := sqliteStore.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateTenant(Tenant{Name: "Durable Co"})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestOpenPersistentStoreSQLitePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "custom.db")
	t.Setenv("DISCOVERYCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("DISCOVERYCORE_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, ok := store.(*sqlite.Store); !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("DISCOVERYCORE_STORAGE_DRIVER", "etcd")

	if _, err := OpenPersistentStore(NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
