package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/id"
	"github.com/amterp/taskboard/internal/kv"
	"github.com/amterp/taskboard/internal/logging"
	"github.com/amterp/taskboard/internal/model"
	"github.com/sirupsen/logrus"
)

const defaultWriteTimeout = 5 * time.Second

// BoardStore owns the authoritative board. Every successful mutation writes
// the full board through the KV store; a failed write leaves the store dirty
// and the next write (or Flush) tries again.
type BoardStore struct {
	mu    sync.Mutex
	board model.Board
	dirty bool
	subs  []BoardSubscriber

	kv           kv.Store
	key          string
	log          logrus.FieldLogger
	newID        func() string
	writeTimeout time.Duration

	// Async persistence: mutations publish the latest encoding and kick the writer.
	async   bool
	pending *string
	kick    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	closed  bool
}

// Option configures a BoardStore.
type Option func(*BoardStore)

// WithKey sets the storage slot. Defaults to model.SnapshotKey.
func WithKey(key string) Option {
	return func(s *BoardStore) { s.key = key }
}

// WithLogger sets the logger used for persistence problems.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *BoardStore) { s.log = log }
}

// WithIDFunc overrides item id generation for AddItem.
func WithIDFunc(fn func() string) Option {
	return func(s *BoardStore) { s.newID = fn }
}

// WithWriteTimeout bounds each background write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *BoardStore) { s.writeTimeout = d }
}

// WithAsyncPersistence moves writes to a single background writer.
// Mutations return before the write lands; writes never reorder, and a
// burst of mutations may collapse into one write of the latest board.
func WithAsyncPersistence() Option {
	return func(s *BoardStore) { s.async = true }
}

// New creates a store with an empty board. Call Load to populate it.
func New(store kv.Store, opts ...Option) *BoardStore {
	s := &BoardStore{
		board:        model.Board{Lists: []model.List{}},
		kv:           store,
		key:          model.SnapshotKey,
		log:          logging.Logger,
		newID:        id.NewItemID,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("key", s.key)

	if s.async {
		s.kick = make(chan struct{}, 1)
		s.stop = make(chan struct{})
		s.stopped = make(chan struct{})
		go s.writer()
	}
	return s
}

// Load installs the persisted board if the KV holds a valid snapshot,
// otherwise initial. The chosen board is returned. Nothing is written.
func (s *BoardStore) Load(ctx context.Context, initial model.Board) model.Board {
	board := initial.Clone()
	if board.Lists == nil {
		board.Lists = []model.List{}
	}

	if persisted, ok := s.read(ctx); ok {
		board = persisted
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
	s.dirty = false
	s.notify()
	return board.Clone()
}

// read fetches and decodes the stored snapshot. Missing, unreadable and
// malformed values all count as absent.
func (s *BoardStore) read(ctx context.Context) (model.Board, bool) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.WithError(&tberr.PersistenceError{Op: "get", Key: s.key, Err: err}).
			Warn("Could not read stored board")
		return model.Board{}, false
	}
	if !ok {
		return model.Board{}, false
	}

	board, err := model.DecodeSnapshot([]byte(raw))
	if err != nil {
		s.log.WithError(err).Warn("Ignoring malformed stored board")
		return model.Board{}, false
	}
	return board, true
}

// Reload re-reads the KV and adopts the stored board when it is valid and
// differs from the current one. Reports whether the board changed.
func (s *BoardStore) Reload(ctx context.Context) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return false, &tberr.PersistenceError{Op: "get", Key: s.key, Err: err}
	}
	if !ok {
		return false, nil
	}
	board, err := model.DecodeSnapshot([]byte(raw))
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if board.Equal(s.board) {
		return false, nil
	}
	s.board = board
	s.dirty = false
	s.notify()
	return true, nil
}

// Snapshot returns a copy of the current board.
func (s *BoardStore) Snapshot() model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Len returns the length of a list.
func (s *BoardStore) Len(listName string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Len(listName)
}

// ItemAt returns the item at a position.
func (s *BoardStore) ItemAt(listName string, index int) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.ItemAt(listName, index)
}

// Locate finds an item by id.
func (s *BoardStore) Locate(itemID string) (listName string, index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Locate(itemID)
}

// MoveWithinList moves the item at src to dst in the same list.
// dst is taken after removal and clamped to the list.
func (s *BoardStore) MoveWithinList(ctx context.Context, listName string, src, dst int) error {
	return s.mutate(ctx, func(b *model.Board) error {
		return b.MoveWithin(listName, src, dst)
	})
}

// MoveAcrossLists moves the item at src in srcList to dst in dstList.
// dst may equal the destination length to append.
func (s *BoardStore) MoveAcrossLists(ctx context.Context, srcList string, src int, dstList string, dst int) error {
	return s.mutate(ctx, func(b *model.Board) error {
		return b.MoveAcross(srcList, src, dstList, dst)
	})
}

// MoveItem moves itemID from src in srcList to dst in dstList, but only if
// that item is still at src. The check and the move happen under one lock.
// A mismatch is an InvalidDropTargetError and the board is left alone.
func (s *BoardStore) MoveItem(ctx context.Context, itemID, srcList string, src int, dstList string, dst int) error {
	return s.mutate(ctx, func(b *model.Board) error {
		current, ok := b.ItemAt(srcList, src)
		if !ok || current.ID != itemID {
			return tberr.InvalidDropTarget(fmt.Sprintf("item %s is no longer at %s[%d]", itemID, srcList, src))
		}
		if srcList == dstList {
			return b.MoveWithin(srcList, src, dst)
		}
		return b.MoveAcross(srcList, src, dstList, dst)
	})
}

// AddItem appends a new item with a generated id to the end of a list.
func (s *BoardStore) AddItem(ctx context.Context, listName, title string) (model.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Item{}, tberr.InvalidField("title", "cannot be empty")
	}

	item := model.Item{ID: s.newID(), Title: title}
	err := s.mutate(ctx, func(b *model.Board) error {
		return b.AppendItem(listName, item)
	})
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// AddList appends an empty list.
func (s *BoardStore) AddList(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return tberr.InvalidField("name", "cannot be empty")
	}
	return s.mutate(ctx, func(b *model.Board) error {
		if !b.AddList(name) {
			return tberr.ListAlreadyExists(name)
		}
		return nil
	})
}

// Subscribe registers sub for change notifications.
func (s *BoardStore) Subscribe(sub BoardSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

// Dirty reports whether the last write failed and hasn't been retried successfully.
func (s *BoardStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// mutate applies fn to a working copy so a failed mutation leaves the board
// untouched, then swaps it in, persists and notifies.
func (s *BoardStore) mutate(ctx context.Context, fn func(b *model.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.board.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.board = next
	s.persistLocked(ctx)
	s.notify()
	return nil
}

// persistLocked writes the current board. Failures are logged, never returned.
func (s *BoardStore) persistLocked(ctx context.Context) {
	data, err := model.EncodeSnapshot(s.board)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode board")
		s.dirty = true
		return
	}
	value := string(data)

	if s.async && !s.closed {
		s.pending = &value
		select {
		case s.kick <- struct{}{}:
		default:
		}
		return
	}

	if err := s.kv.Set(ctx, s.key, value); err != nil {
		s.dirty = true
		s.log.WithError(&tberr.PersistenceError{Op: "set", Key: s.key, Err: err}).
			Warn("Board not persisted, will retry on next change")
		return
	}
	s.dirty = false
}

func (s *BoardStore) notify() {
	if len(s.subs) == 0 {
		return
	}
	for _, sub := range s.subs {
		sub.BoardChanged(s.board.Clone())
	}
}

// writer is the single background writer used in async mode.
func (s *BoardStore) writer() {
	defer close(s.stopped)
	for {
		select {
		case <-s.kick:
			s.writePending()
		case <-s.stop:
			s.writePending()
			return
		}
	}
}

// writePending writes the latest queued encoding, if any. The store lock is
// held across the write so a newer encoding can't land before an older one.
func (s *BoardStore) writePending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return
	}
	value := *s.pending
	s.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, value); err != nil {
		s.dirty = true
		s.log.WithError(&tberr.PersistenceError{Op: "set", Key: s.key, Err: err}).
			Warn("Board not persisted, will retry on next change")
		return
	}
	s.dirty = false
}

// Flush writes the board now if a previous write failed or one is queued.
func (s *BoardStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty && s.pending == nil {
		return nil
	}
	return s.saveLocked(ctx)
}

// Save writes the current board unconditionally.
func (s *BoardStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *BoardStore) saveLocked(ctx context.Context) error {
	s.pending = nil

	data, err := model.EncodeSnapshot(s.board)
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.dirty = true
		return &tberr.PersistenceError{Op: "set", Key: s.key, Err: err}
	}
	s.dirty = false
	return nil
}

// Close stops the background writer, letting it finish the queued write.
// Later mutations persist synchronously.
func (s *BoardStore) Close() {
	s.mu.Lock()
	if !s.async || s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.stopped
}
