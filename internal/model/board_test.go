package model

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	tberr "github.com/amterp/taskboard/internal/errors"
)

func ids(l *List) []string {
	out := make([]string, len(l.Items))
	for i, item := range l.Items {
		out[i] = item.ID
	}
	return out
}

func boardOf(lists map[string][]string, order ...string) Board {
	b := NewBoard(order...)
	for _, name := range order {
		for _, id := range lists[name] {
			if err := b.AppendItem(name, Item{ID: id, Title: "Task " + id}); err != nil {
				panic(err)
			}
		}
	}
	return b
}

func TestBoard_MoveWithin(t *testing.T) {
	tests := []struct {
		name     string
		src, dst int
		expected []string
	}{
		{"first to last", 0, 2, []string{"y", "z", "x"}},
		{"last to first", 2, 0, []string{"z", "x", "y"}},
		{"middle down", 1, 2, []string{"x", "z", "y"}},
		{"same position", 1, 1, []string{"x", "y", "z"}},
		{"dst equal to length clamps to last", 0, 3, []string{"y", "z", "x"}},
		{"dst past length clamps to last", 1, 10, []string{"x", "z", "y"}},
		{"negative dst clamps to first", 2, -4, []string{"z", "x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardOf(map[string][]string{"A": {"x", "y", "z"}}, "A")
			if err := b.MoveWithin("A", tt.src, tt.dst); err != nil {
				t.Fatalf("MoveWithin failed: %v", err)
			}
			if got := ids(b.List("A")); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("MoveWithin(%d, %d) = %v, want %v", tt.src, tt.dst, got, tt.expected)
			}
		})
	}
}

func TestBoard_MoveWithin_Invalid(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x", "y"}}, "A")

	if err := b.MoveWithin("missing", 0, 1); !tberr.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown list, got %v", err)
	}
	if err := b.MoveWithin("A", 2, 0); !tberr.IsValidationError(err) {
		t.Errorf("Expected validation error for src == len, got %v", err)
	}
	if err := b.MoveWithin("A", -1, 0); !tberr.IsValidationError(err) {
		t.Errorf("Expected validation error for negative src, got %v", err)
	}

	if got := ids(b.List("A")); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("List changed after failed moves: %v", got)
	}
}

func TestBoard_MoveAcross(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x", "y"}, "B": {"z"}}, "A", "B")

	if err := b.MoveAcross("A", 0, "B", 1); err != nil {
		t.Fatalf("MoveAcross failed: %v", err)
	}

	if got := ids(b.List("A")); !reflect.DeepEqual(got, []string{"y"}) {
		t.Errorf("A = %v, want [y]", got)
	}
	if got := ids(b.List("B")); !reflect.DeepEqual(got, []string{"z", "x"}) {
		t.Errorf("B = %v, want [z x]", got)
	}
}

func TestBoard_MoveAcross_IntoEmptyList(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x"}}, "A", "B")

	if err := b.MoveAcross("A", 0, "B", 0); err != nil {
		t.Fatalf("MoveAcross failed: %v", err)
	}
	if n, _ := b.Len("A"); n != 0 {
		t.Errorf("Expected A to be empty, got %d items", n)
	}
	if got := ids(b.List("B")); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("B = %v, want [x]", got)
	}
}

func TestBoard_MoveAcross_SameListDelegates(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x", "y", "z"}}, "A")

	if err := b.MoveAcross("A", 0, "A", 2); err != nil {
		t.Fatalf("MoveAcross failed: %v", err)
	}
	if got := ids(b.List("A")); !reflect.DeepEqual(got, []string{"y", "z", "x"}) {
		t.Errorf("A = %v, want [y z x]", got)
	}
}

func TestBoard_MoveAcross_InvalidLeavesBoardUntouched(t *testing.T) {
	tests := []struct {
		name    string
		srcList string
		src     int
		dstList string
		dst     int
		check   func(error) bool
	}{
		{"unknown source list", "nope", 0, "B", 0, tberr.IsNotFound},
		{"unknown dest list", "A", 0, "nope", 0, tberr.IsNotFound},
		{"source out of range", "A", 2, "B", 0, tberr.IsValidationError},
		{"dest past length", "A", 0, "B", 2, tberr.IsValidationError},
		{"negative dest", "A", 0, "B", -1, tberr.IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardOf(map[string][]string{"A": {"x", "y"}, "B": {"z"}}, "A", "B")
			before := b.Clone()

			err := b.MoveAcross(tt.srcList, tt.src, tt.dstList, tt.dst)
			if !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
			if !b.Equal(before) {
				t.Errorf("Board changed after failed move")
			}
		})
	}
}

func TestBoard_IdentityConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := boardOf(map[string][]string{
		"todo":        {"a", "b", "c", "d"},
		"in_progress": {"e"},
		"done":        {"f", "g"},
	}, "todo", "in_progress", "done")

	want := allIDs(b)
	names := b.ListNames()

	for i := 0; i < 2000; i++ {
		src := names[rng.Intn(len(names))]
		dst := names[rng.Intn(len(names))]
		srcLen, _ := b.Len(src)
		dstLen, _ := b.Len(dst)
		// Deliberately include out-of-range indices; those moves must be rejected cleanly.
		srcIdx := rng.Intn(srcLen+2) - 1
		dstIdx := rng.Intn(dstLen+3) - 1

		if src == dst {
			_ = b.MoveWithin(src, srcIdx, dstIdx)
		} else {
			_ = b.MoveAcross(src, srcIdx, dst, dstIdx)
		}

		if err := b.Validate(); err != nil {
			t.Fatalf("step %d: invariant broken: %v", i, err)
		}
		if got := allIDs(b); !reflect.DeepEqual(got, want) {
			t.Fatalf("step %d: ids changed: got %v, want %v", i, got, want)
		}
	}
}

func allIDs(b Board) []string {
	var out []string
	for _, l := range b.Lists {
		for _, item := range l.Items {
			out = append(out, item.ID)
		}
	}
	sort.Strings(out)
	return out
}

func TestBoard_AppendItem(t *testing.T) {
	b := NewBoard("todo")

	if err := b.AppendItem("todo", Item{ID: "a", Title: "A"}); err != nil {
		t.Fatalf("AppendItem failed: %v", err)
	}
	if err := b.AppendItem("todo", Item{ID: "a", Title: "dup"}); !tberr.IsAlreadyExists(err) {
		t.Errorf("Expected AlreadyExists for duplicate id, got %v", err)
	}
	if err := b.AppendItem("missing", Item{ID: "b"}); !tberr.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown list, got %v", err)
	}
	if err := b.AppendItem("todo", Item{}); !tberr.IsValidationError(err) {
		t.Errorf("Expected validation error for empty id, got %v", err)
	}
}

func TestBoard_Locate(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x"}, "B": {"y", "z"}}, "A", "B")

	list, idx, ok := b.Locate("z")
	if !ok || list != "B" || idx != 1 {
		t.Errorf("Locate(z) = (%q, %d, %v), want (B, 1, true)", list, idx, ok)
	}
	if _, _, ok := b.Locate("missing"); ok {
		t.Error("Locate should not find missing item")
	}
}

func TestBoard_CloneIsDeep(t *testing.T) {
	b := boardOf(map[string][]string{"A": {"x", "y"}}, "A")
	c := b.Clone()

	if err := c.MoveWithin("A", 0, 1); err != nil {
		t.Fatalf("MoveWithin failed: %v", err)
	}
	if got := ids(b.List("A")); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Original changed through clone: %v", got)
	}
}

func TestBoard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		board   Board
		wantErr bool
	}{
		{"empty board", Board{}, false},
		{"valid", boardOf(map[string][]string{"A": {"x"}, "B": {"y"}}, "A", "B"), false},
		{"duplicate list", Board{Lists: []List{{Name: "A"}, {Name: "A"}}}, true},
		{"empty list name", Board{Lists: []List{{Name: ""}}}, true},
		{"duplicate item across lists", Board{Lists: []List{
			{Name: "A", Items: []Item{{ID: "x"}}},
			{Name: "B", Items: []Item{{ID: "x"}}},
		}}, true},
		{"empty item id", Board{Lists: []List{{Name: "A", Items: []Item{{Title: "no id"}}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.board.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"todo", "todo"},
		{"in_progress", "in progress"},
		{"waiting_on_review", "waiting on review"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
