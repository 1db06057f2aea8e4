package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/amonks/taskplanner/docstore"
)

type failingBackend struct {
	docstore.Backend
}

func (failingBackend) Save(context.Context, string, []byte) error {
	return errors.New("permission denied")
}

// flakyBackend fails Load while loadErr is set.
type flakyBackend struct {
	*docstore.MemoryBackend
	loadErr error
}

func (b *flakyBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.MemoryBackend.Load(ctx, key)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestRepository(t *testing.T) (*Repository, *docstore.MemoryBackend) {
	t.Helper()
	backend := docstore.NewMemoryBackend()
	return NewRepository(backend, Options{NewID: sequentialIDs()}), backend
}

func mustAdd(t *testing.T, repo *Repository, name string) Task {
	t.Helper()
	created, err := repo.Add(context.Background(), name)
	if err != nil {
		t.Fatalf("add %q: %v", name, err)
	}
	return created
}

func TestAddCreatesIncompleteTask(t *testing.T) {
	repo, _ := newTestRepository(t)

	created := mustAdd(t, repo, "Buy milk")
	if created.ID != "id1" || created.Name != "Buy milk" || created.Completed {
		t.Fatalf("unexpected task %+v", created)
	}

	all := repo.All(context.Background())
	if len(all) != 1 || all[0] != created {
		t.Fatalf("expected stored task, got %+v", all)
	}
}

func TestAddDefaultIDsAreUnique(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryBackend(), Options{})

	first := mustAdd(t, repo, "a")
	second := mustAdd(t, repo, "b")
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q and %q", first.ID, second.ID)
	}
}

func TestAddRejectsCaseInsensitiveDuplicate(t *testing.T) {
	for _, variant := range []string{"Buy milk", "buy milk", "BUY MILK", "bUy MiLk"} {
		t.Run(variant, func(t *testing.T) {
			repo, _ := newTestRepository(t)
			mustAdd(t, repo, "Buy milk")

			_, err := repo.Add(context.Background(), variant)
			if !errors.Is(err, ErrDuplicateName) {
				t.Fatalf("expected ErrDuplicateName, got %v", err)
			}
			if got := len(repo.All(context.Background())); got != 1 {
				t.Fatalf("expected collection length 1, got %d", got)
			}
		})
	}
}

func TestAddDistinctNamesSucceed(t *testing.T) {
	repo, _ := newTestRepository(t)
	mustAdd(t, repo, "Buy milk")
	mustAdd(t, repo, "Buy milk twice")

	if got := len(repo.All(context.Background())); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
}

func TestAddRejectsEmptyName(t *testing.T) {
	repo, backend := newTestRepository(t)

	for _, name := range []string{"", "   "} {
		if _, err := repo.Add(context.Background(), name); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName for %q, got %v", name, err)
		}
	}
	if _, err := backend.Load(context.Background(), DocumentKey); !errors.Is(err, docstore.ErrNotExist) {
		t.Fatalf("expected no document to be written, got %v", err)
	}
}

func TestAddPersistenceFailure(t *testing.T) {
	repo := NewRepository(failingBackend{docstore.NewMemoryBackend()}, Options{})

	_, err := repo.Add(context.Background(), "Buy milk")
	if !errors.Is(err, docstore.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestAddKeepsTasksWhenLoadFails(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: docstore.NewMemoryBackend()}
	repo := NewRepository(backend, Options{NewID: sequentialIDs()})
	for _, name := range []string{"A", "B", "C"} {
		mustAdd(t, repo, name)
	}

	backend.loadErr = errors.New("select document: connection reset")
	if _, err := repo.Add(ctx, "D"); !errors.Is(err, docstore.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	backend.loadErr = nil
	got := Names(repo.All(ctx))
	if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("expected [A B C], got %v", got)
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	repo, _ := newTestRepository(t)
	for _, name := range []string{"C", "A", "B"} {
		mustAdd(t, repo, name)
	}

	names := Names(repo.All(context.Background()))
	if fmt.Sprint(names) != "[C A B]" {
		t.Fatalf("expected insertion order, got %v", names)
	}
}

func TestSetCompletedRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	original := mustAdd(t, repo, "Buy milk")
	mustAdd(t, repo, "Walk dog")

	done, err := repo.SetCompleted(ctx, original.ID, true)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Fatalf("expected completed task, got %+v", done)
	}

	undone, err := repo.SetCompleted(ctx, original.ID, false)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if undone != original {
		t.Fatalf("expected %+v after round trip, got %+v", original, undone)
	}
	stored, err := repo.Get(ctx, original.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored != original {
		t.Fatalf("expected stored %+v, got %+v", original, stored)
	}
}

func TestSetCompletedUnknownID(t *testing.T) {
	repo, _ := newTestRepository(t)
	mustAdd(t, repo, "Buy milk")

	_, err := repo.SetCompleted(context.Background(), "nope", true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCompletedMatchesExactID(t *testing.T) {
	repo, _ := newTestRepository(t)
	created := mustAdd(t, repo, "Buy milk")

	if _, err := repo.SetCompleted(context.Background(), created.ID[:2], true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected prefix to be rejected, got %v", err)
	}
}

func TestDeleteKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	mustAdd(t, repo, "A")
	b := mustAdd(t, repo, "B")
	mustAdd(t, repo, "C")

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	names := Names(repo.All(ctx))
	if fmt.Sprint(names) != "[A C]" {
		t.Fatalf("expected [A C], got %v", names)
	}
}

func TestDeleteUnknownIDLeavesDocumentUnchanged(t *testing.T) {
	ctx := context.Background()
	repo, backend := newTestRepository(t)
	mustAdd(t, repo, "A")
	mustAdd(t, repo, "B")

	before, err := backend.Load(ctx, DocumentKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	after, err := backend.Load(ctx, DocumentKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("expected unchanged document\nbefore: %s\nafter: %s", before, after)
	}
}

func TestDeletedNameCanBeReused(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	created := mustAdd(t, repo, "A")

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mustAdd(t, repo, "a")
}

func TestPending(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	mustAdd(t, repo, "A")
	b := mustAdd(t, repo, "B")
	mustAdd(t, repo, "C")
	if _, err := repo.SetCompleted(ctx, b.ID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}

	names := Names(repo.Pending(ctx))
	if fmt.Sprint(names) != "[A C]" {
		t.Fatalf("expected [A C], got %v", names)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	ids := []string{"abc111", "abd222", "ff0000"}
	i := 0
	repo := NewRepository(docstore.NewMemoryBackend(), Options{NewID: func() string {
		id := ids[i]
		i++
		return id
	}})
	mustAdd(t, repo, "A")
	mustAdd(t, repo, "B")
	mustAdd(t, repo, "C")

	got, err := repo.Resolve(ctx, "ff")
	if err != nil || got.Name != "C" {
		t.Fatalf("expected C, got %+v, %v", got, err)
	}
	if _, err := repo.Resolve(ctx, "ab"); !errors.Is(err, ErrAmbiguousIDPrefix) {
		t.Fatalf("expected ErrAmbiguousIDPrefix, got %v", err)
	}
	if _, err := repo.Resolve(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileDocumentShape(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewRepository(docstore.NewFileBackend(dir), Options{NewID: sequentialIDs()})
	mustAdd(t, repo, "Buy milk")

	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one entry, got %s", data)
	}
	entry := decoded[0]
	if entry["id"] != "id1" || entry["name"] != "Buy milk" || entry["completed"] != false {
		t.Fatalf("unexpected entry %v", entry)
	}
	if len(entry) != 3 {
		t.Fatalf("expected exactly id, name, completed; got %v", entry)
	}

	if got := repo.All(ctx); len(got) != 1 {
		t.Fatalf("expected reread task, got %+v", got)
	}
}

func TestReadsExistingDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	existing := `[
    {"id": "task_65f1c2a1b3c4d5.12345678", "name": "Legacy", "completed": true}
]`
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(existing), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	repo := NewRepository(docstore.NewFileBackend(dir), Options{})
	got, err := repo.Get(ctx, "task_65f1c2a1b3c4d5.12345678")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Legacy" || !got.Completed {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestCorruptDocumentReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	repo := NewRepository(docstore.NewFileBackend(dir), Options{})
	if got := repo.All(ctx); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
	mustAdd(t, repo, "Fresh start")
	if got := repo.All(ctx); len(got) != 1 {
		t.Fatalf("expected one task, got %+v", got)
	}
}
