package store

import "github.com/amterp/taskboard/internal/model"

// BoardSubscriber is notified after every change to the board, with a copy
// of the new state. Called with the store locked: implementations must not
// call back into the store and should hand the board off quickly.
type BoardSubscriber interface {
	BoardChanged(board model.Board)
}

// SubscriberFunc adapts a function to BoardSubscriber.
type SubscriberFunc func(board model.Board)

func (f SubscriberFunc) BoardChanged(board model.Board) {
	f(board)
}
