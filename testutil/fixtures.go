package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/amterp/taskboard/internal/config"
	"github.com/amterp/taskboard/internal/kv"
	"github.com/amterp/taskboard/internal/model"
)

// ErrStorageDown is returned by a FlakyKV that is failing.
var ErrStorageDown = errors.New("storage down")

// TestBoard returns a board with three lists and a few items:
//
//	todo:        t1, t2, t3
//	in_progress: t4
//	done:        (empty)
func TestBoard() model.Board {
	return model.Board{Lists: []model.List{
		{Name: "todo", Items: []model.Item{
			{ID: "t1", Title: "Write the docs"},
			{ID: "t2", Title: "Review PR"},
			{ID: "t3", Title: "Fix login bug"},
		}},
		{Name: "in_progress", Items: []model.Item{
			{ID: "t4", Title: "Set up CI"},
		}},
		{Name: "done", Items: []model.Item{}},
	}}
}

// FlakyKV wraps an in-memory store and can be told to fail reads or writes.
type FlakyKV struct {
	*kv.Memory

	mu        sync.Mutex
	failGets  bool
	failSets  bool
	setCalls  int
}

// NewFlakyKV returns a healthy FlakyKV.
func NewFlakyKV() *FlakyKV {
	return &FlakyKV{Memory: kv.NewMemory()}
}

// FailSets toggles write failures.
func (f *FlakyKV) FailSets(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSets = fail
}

// FailGets toggles read failures.
func (f *FlakyKV) FailGets(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGets = fail
}

// SetCalls returns how many writes were attempted, failed ones included.
func (f *FlakyKV) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGets
	f.mu.Unlock()
	if fail {
		return "", false, ErrStorageDown
	}
	return f.Memory.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSets
	f.mu.Unlock()
	if fail {
		return ErrStorageDown
	}
	return f.Memory.Set(ctx, key, value)
}

// TempProject creates a temporary project root and returns its paths.
func TempProject(t *testing.T) *config.Paths {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.DefaultDataDir), 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	return config.NewPaths(dir, "")
}

// StoredBoard decodes the board persisted under key, failing the test if absent.
func StoredBoard(t *testing.T, store kv.Store, key string) model.Board {
	t.Helper()

	raw, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to read stored board: %v", err)
	}
	if !ok {
		t.Fatalf("no board stored under %q", key)
	}
	board, err := model.DecodeSnapshot([]byte(raw))
	if err != nil {
		t.Fatalf("stored board is malformed: %v", err)
	}
	return board
}
