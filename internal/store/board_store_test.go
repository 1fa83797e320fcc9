package store

import (
	"context"
	"reflect"
	"sync"
	"testing"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/kv"
	"github.com/amterp/taskboard/internal/logging"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/testutil"
)

func newTestStore(t *testing.T, backing kv.Store, opts ...Option) *BoardStore {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	s := New(backing, opts...)
	t.Cleanup(s.Close)
	return s
}

func listIDs(b model.Board, name string) []string {
	l := b.List(name)
	if l == nil {
		return nil
	}
	out := make([]string, len(l.Items))
	for i, item := range l.Items {
		out[i] = item.ID
	}
	return out
}

func TestLoad_EmptyStorageReturnsInitial(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	initial := testutil.TestBoard()

	got := s.Load(context.Background(), initial)
	if !got.Equal(initial) {
		t.Errorf("Load returned %+v, want initial board", got)
	}
	if !s.Snapshot().Equal(initial) {
		t.Error("Snapshot should match the loaded board")
	}
}

func TestLoad_DoesNotWrite(t *testing.T) {
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(context.Background(), testutil.TestBoard())

	if n := backing.SetCalls(); n != 0 {
		t.Errorf("Load wrote %d times, want 0", n)
	}
}

func TestLoad_PersistedBoardWins(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()

	first := newTestStore(t, backing)
	first.Load(ctx, testutil.TestBoard())
	if err := first.MoveAcrossLists(ctx, "todo", 0, "done", 0); err != nil {
		t.Fatalf("MoveAcrossLists failed: %v", err)
	}
	want := first.Snapshot()

	second := newTestStore(t, backing)
	got := second.Load(ctx, testutil.TestBoard())
	if !got.Equal(want) {
		t.Errorf("Load = %v, want persisted %v", listIDs(got, "done"), listIDs(want, "done"))
	}
}

func TestLoad_MalformedFallsBackToInitial(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "{{{not json"},
		{"wrong shape", `["todo","done"]`},
		{"duplicate ids", `{"a":[{"id":"x","title":"1"}],"b":[{"id":"x","title":"2"}]}`},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backing := kv.NewMemory()
			if err := backing.Set(ctx, model.SnapshotKey, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			s := newTestStore(t, backing)
			initial := testutil.TestBoard()
			if got := s.Load(ctx, initial); !got.Equal(initial) {
				t.Errorf("Load = %+v, want initial board", got)
			}
		})
	}
}

func TestLoad_ReadFailureFallsBackToInitial(t *testing.T) {
	backing := testutil.NewFlakyKV()
	backing.FailGets(true)

	s := newTestStore(t, backing)
	initial := testutil.TestBoard()
	if got := s.Load(context.Background(), initial); !got.Equal(initial) {
		t.Error("Load should fall back to the initial board when storage is unreadable")
	}
}

func TestMoveWithinList(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := newTestStore(t, backing)
	s.Load(ctx, model.Board{Lists: []model.List{{Name: "A", Items: []model.Item{
		{ID: "x"}, {ID: "y"}, {ID: "z"},
	}}}})

	if err := s.MoveWithinList(ctx, "A", 0, 2); err != nil {
		t.Fatalf("MoveWithinList failed: %v", err)
	}

	want := []string{"y", "z", "x"}
	if got := listIDs(s.Snapshot(), "A"); !reflect.DeepEqual(got, want) {
		t.Errorf("A = %v, want %v", got, want)
	}
	if got := listIDs(testutil.StoredBoard(t, backing, model.SnapshotKey), "A"); !reflect.DeepEqual(got, want) {
		t.Errorf("Persisted A = %v, want %v", got, want)
	}
}

func TestMoveWithinList_SamePositionStillPersists(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	if err := s.MoveWithinList(ctx, "todo", 1, 1); err != nil {
		t.Fatalf("MoveWithinList failed: %v", err)
	}
	if n := backing.SetCalls(); n != 1 {
		t.Errorf("Expected 1 write for a no-op move, got %d", n)
	}
}

func TestMoveAcrossLists(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := newTestStore(t, backing)
	s.Load(ctx, model.Board{Lists: []model.List{
		{Name: "A", Items: []model.Item{{ID: "x"}, {ID: "y"}}},
		{Name: "B", Items: []model.Item{{ID: "z"}}},
	}})

	if err := s.MoveAcrossLists(ctx, "A", 0, "B", 1); err != nil {
		t.Fatalf("MoveAcrossLists failed: %v", err)
	}

	snap := s.Snapshot()
	if got := listIDs(snap, "A"); !reflect.DeepEqual(got, []string{"y"}) {
		t.Errorf("A = %v, want [y]", got)
	}
	if got := listIDs(snap, "B"); !reflect.DeepEqual(got, []string{"z", "x"}) {
		t.Errorf("B = %v, want [z x]", got)
	}
	if stored := testutil.StoredBoard(t, backing, model.SnapshotKey); !stored.Equal(snap) {
		t.Error("Persisted board differs from in-memory board")
	}
}

func TestMoveItem(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	// Within a list
	if err := s.MoveItem(ctx, "t1", "todo", 0, "todo", 2); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	if got := listIDs(s.Snapshot(), "todo"); !reflect.DeepEqual(got, []string{"t2", "t3", "t1"}) {
		t.Errorf("todo = %v, want [t2 t3 t1]", got)
	}

	// Across lists
	if err := s.MoveItem(ctx, "t4", "in_progress", 0, "done", 0); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	board := s.Snapshot()
	if got := listIDs(board, "done"); !reflect.DeepEqual(got, []string{"t4"}) {
		t.Errorf("done = %v, want [t4]", got)
	}
	if !testutil.StoredBoard(t, backing, model.SnapshotKey).Equal(board) {
		t.Error("MoveItem should persist the board")
	}

	// The position now holds another item
	calls := backing.SetCalls()
	err := s.MoveItem(ctx, "t1", "todo", 0, "done", 0)
	if !tberr.IsInvalidDropTarget(err) {
		t.Errorf("Expected invalid drop target, got %v", err)
	}
	if !s.Snapshot().Equal(board) {
		t.Error("Board changed after rejected MoveItem")
	}
	if backing.SetCalls() != calls {
		t.Error("Rejected MoveItem should not persist")
	}
}

func TestMoves_InvalidArgumentsDontPersist(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	initial := testutil.TestBoard()
	s.Load(ctx, initial)

	tests := []struct {
		name  string
		move  func() error
		check func(error) bool
	}{
		{"unknown list", func() error { return s.MoveWithinList(ctx, "nope", 0, 0) }, tberr.IsNotFound},
		{"source out of range", func() error { return s.MoveWithinList(ctx, "todo", 3, 0) }, tberr.IsValidationError},
		{"unknown dest", func() error { return s.MoveAcrossLists(ctx, "todo", 0, "nope", 0) }, tberr.IsNotFound},
		{"dest past end", func() error { return s.MoveAcrossLists(ctx, "todo", 0, "done", 1) }, tberr.IsValidationError},
		{"empty source", func() error { return s.MoveAcrossLists(ctx, "done", 0, "todo", 0) }, tberr.IsValidationError},
		{"item not at source", func() error { return s.MoveItem(ctx, "t2", "todo", 0, "done", 0) }, tberr.IsInvalidDropTarget},
		{"item source past end", func() error { return s.MoveItem(ctx, "t1", "todo", 5, "done", 0) }, tberr.IsInvalidDropTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.move(); !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	if !s.Snapshot().Equal(initial) {
		t.Error("Board changed after invalid moves")
	}
	if n := backing.SetCalls(); n != 0 {
		t.Errorf("Invalid moves wrote %d times", n)
	}
}

func TestWriteFailureIsNonFatalAndRetried(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	backing.FailSets(true)
	if err := s.MoveAcrossLists(ctx, "todo", 0, "done", 0); err != nil {
		t.Fatalf("Move should succeed despite write failure, got %v", err)
	}
	if got := listIDs(s.Snapshot(), "done"); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Errorf("In-memory board should hold the move, done = %v", got)
	}
	if !s.Dirty() {
		t.Error("Store should be dirty after a failed write")
	}

	backing.FailSets(false)
	if err := s.MoveWithinList(ctx, "todo", 0, 1); err != nil {
		t.Fatalf("MoveWithinList failed: %v", err)
	}
	if s.Dirty() {
		t.Error("Store should be clean after a successful write")
	}

	stored := testutil.StoredBoard(t, backing, model.SnapshotKey)
	if !stored.Equal(s.Snapshot()) {
		t.Error("Next write should carry both moves")
	}
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush on clean store failed: %v", err)
	}
	if n := backing.SetCalls(); n != 0 {
		t.Errorf("Flush on clean store wrote %d times", n)
	}

	backing.FailSets(true)
	_ = s.MoveWithinList(ctx, "todo", 0, 2)

	if err := s.Flush(ctx); !tberr.IsPersistenceUnavailable(err) {
		t.Errorf("Expected persistence error while storage is down, got %v", err)
	}

	backing.FailSets(false)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if s.Dirty() {
		t.Error("Store should be clean after Flush")
	}
	if stored := testutil.StoredBoard(t, backing, model.SnapshotKey); !stored.Equal(s.Snapshot()) {
		t.Error("Flush should write the current board")
	}
}

func TestAsyncPersistence(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := New(backing, WithLogger(logging.Discard()), WithAsyncPersistence())
	s.Load(ctx, testutil.TestBoard())

	for i := 0; i < 20; i++ {
		if err := s.MoveWithinList(ctx, "todo", 0, 2); err != nil {
			t.Fatalf("MoveWithinList failed: %v", err)
		}
	}
	if err := s.MoveAcrossLists(ctx, "todo", 0, "done", 0); err != nil {
		t.Fatalf("MoveAcrossLists failed: %v", err)
	}

	s.Close()

	stored := testutil.StoredBoard(t, backing, model.SnapshotKey)
	if !stored.Equal(s.Snapshot()) {
		t.Errorf("After Close the stored board should be the latest:\n got %v\nwant %v",
			listIDs(stored, "todo"), listIDs(s.Snapshot(), "todo"))
	}

	// Closed stores fall back to synchronous writes
	if err := s.MoveAcrossLists(ctx, "done", 0, "todo", 0); err != nil {
		t.Fatalf("MoveAcrossLists after Close failed: %v", err)
	}
	if stored := testutil.StoredBoard(t, backing, model.SnapshotKey); !stored.Equal(s.Snapshot()) {
		t.Error("Write after Close should be synchronous")
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := newTestStore(t, backing, WithIDFunc(func() string { return "i_fixed" }))
	s.Load(ctx, testutil.TestBoard())

	item, err := s.AddItem(ctx, "done", "  Ship it  ")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.ID != "i_fixed" || item.Title != "Ship it" {
		t.Errorf("AddItem = %+v", item)
	}
	if got := listIDs(testutil.StoredBoard(t, backing, model.SnapshotKey), "done"); !reflect.DeepEqual(got, []string{"i_fixed"}) {
		t.Errorf("Persisted done = %v", got)
	}

	if _, err := s.AddItem(ctx, "done", "   "); !tberr.IsValidationError(err) {
		t.Errorf("Expected validation error for blank title, got %v", err)
	}
	if _, err := s.AddItem(ctx, "nope", "x"); !tberr.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown list, got %v", err)
	}
	if _, err := s.AddItem(ctx, "todo", "dup"); !tberr.IsAlreadyExists(err) {
		t.Errorf("Expected AlreadyExists for reused id, got %v", err)
	}
}

func TestAddList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	s.Load(ctx, testutil.TestBoard())

	if err := s.AddList(ctx, "blocked"); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	snap := s.Snapshot()
	names := snap.ListNames()
	if names[len(names)-1] != "blocked" {
		t.Errorf("New list should be last, got %v", names)
	}
	if err := s.AddList(ctx, "todo"); !tberr.IsAlreadyExists(err) {
		t.Errorf("Expected AlreadyExists, got %v", err)
	}
	if err := s.AddList(ctx, ""); !tberr.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	changed, err := s.Reload(ctx)
	if err != nil || changed {
		t.Fatalf("Reload with nothing stored = %v, %v", changed, err)
	}

	external := testutil.TestBoard()
	if err := external.MoveAcross("todo", 2, "done", 0); err != nil {
		t.Fatalf("MoveAcross failed: %v", err)
	}
	data, _ := model.EncodeSnapshot(external)
	if err := backing.Set(ctx, model.SnapshotKey, string(data)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	changed, err = s.Reload(ctx)
	if err != nil || !changed {
		t.Fatalf("Reload = %v, %v; want changed", changed, err)
	}
	if !s.Snapshot().Equal(external) {
		t.Error("Reload should adopt the stored board")
	}

	changed, _ = s.Reload(ctx)
	if changed {
		t.Error("Reload of an identical board should report no change")
	}

	if err := backing.Set(ctx, model.SnapshotKey, "corrupt"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := s.Reload(ctx); !tberr.IsMalformedSnapshot(err) {
		t.Errorf("Expected malformed snapshot error, got %v", err)
	}
	if !s.Snapshot().Equal(external) {
		t.Error("A malformed stored board must not replace the current one")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	s.Load(ctx, testutil.TestBoard())

	var got []model.Board
	s.Subscribe(SubscriberFunc(func(b model.Board) {
		got = append(got, b)
	}))

	if err := s.MoveAcrossLists(ctx, "todo", 0, "done", 0); err != nil {
		t.Fatalf("MoveAcrossLists failed: %v", err)
	}
	_ = s.MoveWithinList(ctx, "nope", 0, 0)

	if len(got) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(got))
	}
	if ids := listIDs(got[0], "done"); !reflect.DeepEqual(ids, []string{"t1"}) {
		t.Errorf("Notified board done = %v", ids)
	}

	// Subscribers get copies
	got[0].Lists[0].Items = nil
	if n, _ := s.Len("todo"); n != 2 {
		t.Errorf("Store board changed through subscriber copy, todo len = %d", n)
	}
}

func TestConcurrentMovesConserveItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())
	initial := testutil.TestBoard()
	s.Load(ctx, initial)

	names := initial.ListNames()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				src := names[(w+i)%len(names)]
				dst := names[(w+2*i)%len(names)]
				_ = s.MoveAcrossLists(ctx, src, 0, dst, 0)
			}
		}(w)
	}
	wg.Wait()

	snap := s.Snapshot()
	if err := snap.Validate(); err != nil {
		t.Fatalf("Board invariant broken: %v", err)
	}
	if snap.ItemCount() != initial.ItemCount() {
		t.Errorf("Item count = %d, want %d", snap.ItemCount(), initial.ItemCount())
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	backing := testutil.NewFlakyKV()
	s := newTestStore(t, backing)
	s.Load(ctx, testutil.TestBoard())

	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if stored := testutil.StoredBoard(t, backing, model.SnapshotKey); !stored.Equal(testutil.TestBoard()) {
		t.Error("Save should write the loaded board")
	}

	backing.FailSets(true)
	if err := s.Save(ctx); !tberr.IsPersistenceUnavailable(err) {
		t.Errorf("Expected persistence error, got %v", err)
	}
	if !s.Dirty() {
		t.Error("Failed Save should leave the store dirty")
	}
}
