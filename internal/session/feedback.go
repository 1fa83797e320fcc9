package session

// Feedback is the visual treatment for one item position.
type Feedback int

const (
	FeedbackNone Feedback = iota
	// FeedbackLifted marks the item being dragged.
	FeedbackLifted
	// FeedbackDropTarget marks the position the item would land on.
	FeedbackDropTarget
)

func (f Feedback) String() string {
	switch f {
	case FeedbackLifted:
		return "lifted"
	case FeedbackDropTarget:
		return "drop_target"
	default:
		return "none"
	}
}

// Feedback returns the treatment for the item at index in listName.
// It depends only on session state.
func (s *Session) Feedback(listName string, index int) Feedback {
	if s.state != Dragging {
		return FeedbackNone
	}
	if s.source != nil && s.source.List == listName && s.source.Index == index {
		return FeedbackLifted
	}
	if s.target != nil && s.target.List == listName && s.target.Index == index {
		return FeedbackDropTarget
	}
	return FeedbackNone
}

// View is the session state as sent to a client.
type View struct {
	State  string  `json:"state"`
	Source *Anchor `json:"source,omitempty"`
	Target *Anchor `json:"target,omitempty"`
}

// View returns a serializable copy of the session state.
func (s *Session) View() View {
	return View{
		State:  s.state.String(),
		Source: s.Source(),
		Target: s.Target(),
	}
}
