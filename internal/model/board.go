package model

import (
	"strings"

	tberr "github.com/amterp/taskboard/internal/errors"
)

// Item is a unit of work on the board. Moves relocate items, they never copy or edit them.
type Item struct {
	ID    string `toml:"id" json:"id"`
	Title string `toml:"title" json:"title"`
}

// List is a named, ordered sequence of items.
type List struct {
	Name  string `toml:"name" json:"name"`
	Items []Item `toml:"items" json:"items"`
}

// Board maps list names to lists. List order is kept for display only;
// item order within a list is what the reorder engine manipulates.
//
// Invariant: every item ID appears in exactly one list at exactly one position.
type Board struct {
	Lists []List `toml:"lists" json:"-"`
}

// DefaultLists returns the list names of a fresh board.
func DefaultLists() []string {
	return []string{"todo", "in_progress", "done"}
}

// NewBoard creates an empty board with the given list names.
func NewBoard(names ...string) Board {
	b := Board{Lists: make([]List, 0, len(names))}
	for _, name := range names {
		b.AddList(name)
	}
	return b
}

// DisplayName returns the list name as shown to users: underscores become spaces.
func DisplayName(listName string) string {
	return strings.ReplaceAll(listName, "_", " ")
}

// ListIndex returns the index of the list with the given name, or -1 if not found.
func (b *Board) ListIndex(name string) int {
	for i, l := range b.Lists {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// HasList returns true if the board has a list with the given name.
func (b *Board) HasList(name string) bool {
	return b.ListIndex(name) >= 0
}

// List returns the list with the given name, or nil if not found.
func (b *Board) List(name string) *List {
	idx := b.ListIndex(name)
	if idx < 0 {
		return nil
	}
	return &b.Lists[idx]
}

// ListNames returns list names in board order.
func (b *Board) ListNames() []string {
	names := make([]string, len(b.Lists))
	for i, l := range b.Lists {
		names[i] = l.Name
	}
	return names
}

// Len returns the number of items in a list. ok is false if the list doesn't exist.
func (b *Board) Len(name string) (n int, ok bool) {
	l := b.List(name)
	if l == nil {
		return 0, false
	}
	return len(l.Items), true
}

// ItemAt returns the item at a position in a list.
func (b *Board) ItemAt(name string, index int) (Item, bool) {
	l := b.List(name)
	if l == nil || index < 0 || index >= len(l.Items) {
		return Item{}, false
	}
	return l.Items[index], true
}

// Locate finds the list and position holding the item with the given ID.
func (b *Board) Locate(itemID string) (listName string, index int, ok bool) {
	for _, l := range b.Lists {
		for i, item := range l.Items {
			if item.ID == itemID {
				return l.Name, i, true
			}
		}
	}
	return "", -1, false
}

// ItemCount returns the total number of items across all lists.
func (b *Board) ItemCount() int {
	n := 0
	for _, l := range b.Lists {
		n += len(l.Items)
	}
	return n
}

// AddList appends an empty list. Returns false if a list with that name exists.
func (b *Board) AddList(name string) bool {
	if b.HasList(name) {
		return false
	}
	b.Lists = append(b.Lists, List{Name: name, Items: []Item{}})
	return true
}

// AppendItem adds an item at the end of a list.
func (b *Board) AppendItem(listName string, item Item) error {
	if item.ID == "" {
		return tberr.InvalidField("item id", "cannot be empty")
	}
	if _, _, exists := b.Locate(item.ID); exists {
		return tberr.ItemAlreadyExists(item.ID)
	}
	l := b.List(listName)
	if l == nil {
		return tberr.ListNotFound(listName)
	}
	l.Items = append(l.Items, item)
	return nil
}

// MoveWithin removes the item at src and reinserts it at dst in the same list.
// dst is in after-removal coordinates and is clamped to [0, len-1], so a dst
// of len keeps the item last. Nothing changes if validation fails.
func (b *Board) MoveWithin(listName string, src, dst int) error {
	l := b.List(listName)
	if l == nil {
		return tberr.ListNotFound(listName)
	}
	n := len(l.Items)
	if src < 0 || src >= n {
		return tberr.IndexOutOfRange("source index", src, n-1)
	}
	dst = clamp(dst, 0, n-1)
	if src == dst {
		return nil
	}

	item := l.Items[src]
	items := removeAt(l.Items, src)
	l.Items = insertAt(items, dst, item)
	return nil
}

// MoveAcross removes the item at src in srcList and inserts it at dst in dstList.
// dst may equal the destination's length, meaning append. Both lists are updated
// together; on a validation failure neither is touched.
func (b *Board) MoveAcross(srcList string, src int, dstList string, dst int) error {
	if srcList == dstList {
		return b.MoveWithin(srcList, src, dst)
	}

	from := b.List(srcList)
	if from == nil {
		return tberr.ListNotFound(srcList)
	}
	to := b.List(dstList)
	if to == nil {
		return tberr.ListNotFound(dstList)
	}
	if src < 0 || src >= len(from.Items) {
		return tberr.IndexOutOfRange("source index", src, len(from.Items)-1)
	}
	if dst < 0 || dst > len(to.Items) {
		return tberr.IndexOutOfRange("destination index", dst, len(to.Items))
	}

	item := from.Items[src]
	newFrom := removeAt(from.Items, src)
	newTo := insertAt(to.Items, dst, item)
	from.Items = newFrom
	to.Items = newTo
	return nil
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := Board{Lists: make([]List, len(b.Lists))}
	for i, l := range b.Lists {
		items := make([]Item, len(l.Items))
		copy(items, l.Items)
		out.Lists[i] = List{Name: l.Name, Items: items}
	}
	return out
}

// Equal reports whether two boards have the same lists, in the same order, with the same items.
func (b Board) Equal(other Board) bool {
	if len(b.Lists) != len(other.Lists) {
		return false
	}
	for i, l := range b.Lists {
		o := other.Lists[i]
		if l.Name != o.Name || len(l.Items) != len(o.Items) {
			return false
		}
		for j := range l.Items {
			if l.Items[j] != o.Items[j] {
				return false
			}
		}
	}
	return true
}

// Validate checks structural invariants: unique non-empty list names and
// unique non-empty item IDs across the whole board.
func (b Board) Validate() error {
	lists := make(map[string]bool, len(b.Lists))
	ids := make(map[string]bool)
	for _, l := range b.Lists {
		if l.Name == "" {
			return tberr.InvalidField("list name", "cannot be empty")
		}
		if lists[l.Name] {
			return tberr.ListAlreadyExists(l.Name)
		}
		lists[l.Name] = true
		for _, item := range l.Items {
			if item.ID == "" {
				return tberr.InvalidField("item id", "cannot be empty (list "+l.Name+")")
			}
			if ids[item.ID] {
				return tberr.ItemAlreadyExists(item.ID)
			}
			ids[item.ID] = true
		}
	}
	return nil
}

func removeAt(items []Item, i int) []Item {
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func insertAt(items []Item, i int, item Item) []Item {
	out := make([]Item, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, item)
	return append(out, items[i:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
