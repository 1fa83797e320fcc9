package session

import (
	"context"

	tberr "github.com/amterp/taskboard/internal/errors"
)

// Event types sent by a view.
const (
	EventDragStart          = "drag_start"
	EventDragEnterItem      = "drag_enter_item"
	EventDragLeaveItem      = "drag_leave_item"
	EventDragEnterContainer = "drag_enter_container"
	EventDrop               = "drop"
	EventDragEnd            = "drag_end"
	EventCancel             = "cancel"
)

// Event is one drag notification from a view.
type Event struct {
	Type  string `json:"type"`
	List  string `json:"list,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Apply dispatches ev. Only drop events produce a DropResult.
func (s *Session) Apply(ctx context.Context, ev Event) (DropResult, error) {
	switch ev.Type {
	case EventDragStart:
		return DropResult{}, s.BeginDrag(ev.List, ev.Index)
	case EventDragEnterItem:
		s.SetTarget(ev.List, ev.Index)
	case EventDragLeaveItem:
		s.LeaveItem(ev.List, ev.Index)
	case EventDragEnterContainer:
		s.EnterContainer(ev.List)
	case EventDrop:
		return s.EndDrag(ctx)
	case EventDragEnd:
		s.DragEnd()
	case EventCancel:
		s.CancelDrag()
	default:
		return DropResult{}, tberr.InvalidField("type", "unknown event "+ev.Type)
	}
	return DropResult{}, nil
}
