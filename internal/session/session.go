// Package session tracks a single drag gesture and turns it into at most one
// board mutation.
package session

import (
	"context"
	"fmt"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/model"
)

// Board is what a session needs from the board store.
type Board interface {
	Len(listName string) (int, bool)
	ItemAt(listName string, index int) (model.Item, bool)
	// MoveItem moves itemID only if it is still at src, atomically.
	MoveItem(ctx context.Context, itemID, srcList string, src int, dstList string, dst int) error
}

// State of a session.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Anchor points at a position on the board. The source anchor carries a copy
// of the dragged item; target anchors don't.
type Anchor struct {
	List  string      `json:"list"`
	Index int         `json:"index"`
	Item  *model.Item `json:"item,omitempty"`
}

// DropResult describes what a drop did.
type DropResult struct {
	Moved  bool
	Source Anchor
	Target Anchor
}

// Session is the drag state of one client. Not safe for concurrent use;
// drive it from a single goroutine.
type Session struct {
	board  Board
	state  State
	source *Anchor
	target *Anchor

	// The item-level hover claim: list name -> hovered index. A gesture has
	// one hover position, so this holds at most one list. While a list has
	// the claim, container hovers over it don't move the target.
	claims map[string]int
}

// New creates an idle session over board.
func New(board Board) *Session {
	return &Session{board: board, claims: make(map[string]int)}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Source returns the source anchor, or nil when idle.
func (s *Session) Source() *Anchor {
	if s.source == nil {
		return nil
	}
	a := *s.source
	return &a
}

// Target returns the target anchor, or nil when there is none.
func (s *Session) Target() *Anchor {
	if s.target == nil {
		return nil
	}
	a := *s.target
	return &a
}

// BeginDrag starts a gesture on the item at index in listName. An active
// gesture is cancelled first. If the position holds no item the session
// stays idle.
func (s *Session) BeginDrag(listName string, index int) error {
	if s.state == Dragging {
		s.CancelDrag()
	}

	item, ok := s.board.ItemAt(listName, index)
	if !ok {
		n, exists := s.board.Len(listName)
		if !exists {
			return tberr.ListNotFound(listName)
		}
		return tberr.IndexOutOfRange("index", index, n-1)
	}

	s.state = Dragging
	s.source = &Anchor{List: listName, Index: index, Item: &item}
	s.target = nil
	return nil
}

// SetTarget records an item-level hover. It replaces any earlier claim and
// wins over container hovers for the same list until LeaveItem releases it
// or the pointer moves to another list.
func (s *Session) SetTarget(listName string, index int) {
	if s.state != Dragging {
		return
	}
	clear(s.claims)
	s.claims[listName] = index
	s.target = &Anchor{List: listName, Index: index}
}

// LeaveItem releases the item-level claim on listName if it is still for index.
func (s *Session) LeaveItem(listName string, index int) {
	if s.state != Dragging {
		return
	}
	if claimed, ok := s.claims[listName]; ok && claimed == index {
		delete(s.claims, listName)
	}
}

// EnterContainer records a hover over a list's background: the target
// becomes the end of that list, unless an item in it holds the claim.
func (s *Session) EnterContainer(listName string) {
	if s.state != Dragging {
		return
	}
	// Claims on other lists are no longer the current hover position.
	for name := range s.claims {
		if name != listName {
			delete(s.claims, name)
		}
	}
	if _, claimed := s.claims[listName]; claimed {
		return
	}
	n, ok := s.board.Len(listName)
	if !ok {
		return
	}
	s.target = &Anchor{List: listName, Index: n}
}

// EndDrag is the drop. With both anchors set it performs exactly one move;
// the session is idle afterwards whatever happens.
func (s *Session) EndDrag(ctx context.Context) (DropResult, error) {
	source, target := s.source, s.target
	s.reset()

	if source == nil {
		return DropResult{}, tberr.InvalidDropTarget("no drag in progress")
	}
	if target == nil {
		return DropResult{Source: *source}, tberr.InvalidDropTarget("no drop target")
	}

	result := DropResult{Source: *source, Target: *target}

	if source.Item == nil {
		return result, tberr.InvalidDropTarget("source has no item")
	}

	// The board may have changed under us (another client, a reload);
	// MoveItem refuses to move anything but the dragged item.
	err := s.board.MoveItem(ctx, source.Item.ID, source.List, source.Index, target.List, target.Index)
	if err != nil {
		return result, fmt.Errorf("drop failed: %w", err)
	}

	result.Moved = true
	return result, nil
}

// CancelDrag abandons the gesture without touching the board.
func (s *Session) CancelDrag() {
	s.reset()
}

// DragEnd is the platform's end-of-gesture cleanup. It fires after a drop
// as well, so it only cancels a gesture that is still active.
func (s *Session) DragEnd() {
	if s.state == Dragging {
		s.CancelDrag()
	}
}

func (s *Session) reset() {
	s.state = Idle
	s.source = nil
	s.target = nil
	clear(s.claims)
}
