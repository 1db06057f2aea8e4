package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileBackendLoadMissing(t *testing.T) {
	backend := NewFileBackend(t.TempDir())

	_, err := backend.Load(context.Background(), "tasks")
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestFileBackendSaveCreatesDirAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	backend := NewFileBackend(dir)

	if err := backend.Save(ctx, "tasks", []byte("[]\n")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, "tasks", []byte("[1]\n")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[1]\n" {
		t.Fatalf("expected latest contents, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			t.Fatalf("unexpected leftover file %s", entry.Name())
		}
	}
}

func TestFileBackendSaveUnwritableDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	doc := NewDocument(NewFileBackend(dir), "tasks", Options[[]item]{})
	err := doc.Write(context.Background(), []item{{Name: "A"}})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	backend := NewFileBackend(t.TempDir())
	if err := backend.Save(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestFileBackendLockSerializesUpdates(t *testing.T) {
	ctx := context.Background()
	backend := NewFileBackend(t.TempDir())
	doc := NewDocument(backend, "counter", Options[int]{})

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := doc.Update(ctx, func(n *int) error {
				*n++
				return nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := doc.Read(ctx); got != writers {
		t.Fatalf("expected %d, got %d", writers, got)
	}
}
