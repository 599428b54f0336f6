package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

func setupTestEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	return tmp
}

func TestDirStoreRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	store, err := NewDirStore(filepath.Join(tmp, "objects"), nil)
	if err != nil {
		t.Fatalf("NewDirStore() returned error: %v", err)
	}

	src := filepath.Join(tmp, "payload.txt")
	if err := os.WriteFile(src, []byte("object bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}

	ctx := context.Background()
	if err := store.StoreObject(ctx, "file-0001", src); err != nil {
		t.Fatalf("StoreObject() returned error: %v", err)
	}

	dest := filepath.Join(tmp, "fetched", "payload.txt")
	if err := store.FetchObject(ctx, "file-0001", dest); err != nil {
		t.Fatalf("FetchObject() returned error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read fetched file: %v", err)
	}
	if string(data) != "object bytes" {
		t.Errorf("fetched content = %q, want %q", data, "object bytes")
	}
}

func TestDirStoreFetchMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewDirStore() returned error: %v", err)
	}

	err = store.FetchObject(context.Background(), "file-missing", filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("error = %v, want ErrObjectNotFound", err)
	}
}

func TestDirStoreStatObject(t *testing.T) {
	tmp := t.TempDir()
	store, err := NewDirStore(filepath.Join(tmp, "objects"), nil)
	if err != nil {
		t.Fatalf("NewDirStore() returned error: %v", err)
	}

	src := filepath.Join(tmp, "payload.txt")
	if err := os.WriteFile(src, []byte("object bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}

	ctx := context.Background()
	if err := store.StoreObject(ctx, "file-0001", src); err != nil {
		t.Fatalf("StoreObject() returned error: %v", err)
	}

	size, err := store.StatObject(ctx, "file-0001")
	if err != nil {
		t.Fatalf("StatObject() returned error: %v", err)
	}
	if size != int64(len("object bytes")) {
		t.Errorf("size = %d, want %d", size, len("object bytes"))
	}

	if _, err := store.StatObject(ctx, "file-missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("error = %v, want ErrObjectNotFound", err)
	}
}

func TestDirStoreRequiresRoot(t *testing.T) {
	if _, err := NewDirStore("", nil); err == nil {
		t.Error("NewDirStore should reject an empty root")
	}
}

func TestDirStoreCancelledContext(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewDirStore() returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.FetchObject(ctx, "file-0001", "out"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNewObjectStoreLocalBackend(t *testing.T) {
	tmp := setupTestEnv(t)

	cm := utils.NewConfigManager("")
	cm.SetConfig("storage_backend", "local")
	cm.SetConfig("local_store_dir", filepath.Join(tmp, "objects"))

	store, err := NewObjectStore(cm, nil)
	if err != nil {
		t.Fatalf("NewObjectStore() returned error: %v", err)
	}
	if _, ok := store.(*DirStore); !ok {
		t.Errorf("store = %T, want *DirStore", store)
	}
}

func TestNewObjectStoreUnknownBackend(t *testing.T) {
	setupTestEnv(t)

	cm := utils.NewConfigManager("")
	cm.SetConfig("storage_backend", "ftp")

	if _, err := NewObjectStore(cm, nil); err == nil {
		t.Error("NewObjectStore should reject an unknown backend")
	}
}
