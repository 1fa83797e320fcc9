package api

import (
	"context"
	"fmt"

	"github.com/amterp/taskboard/internal/config"
	"github.com/amterp/taskboard/internal/kv"
	"github.com/amterp/taskboard/internal/logging"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/store"
)

// BoardContext bundles everything the handlers and commands need for one board.
type BoardContext struct {
	Paths  *config.Paths
	Config *config.Config
	KV     kv.Store
	Store  *store.BoardStore
}

// BuildBoardContext opens the configured storage and loads the board.
// When nothing valid is stored the board comes from the seed file, or else
// from the configured list names.
func BuildBoardContext(ctx context.Context, paths *config.Paths, cfg *config.Config) (*BoardContext, error) {
	if paths == nil || cfg == nil {
		return nil, fmt.Errorf("paths and config are required")
	}

	initial, err := InitialBoard(cfg)
	if err != nil {
		return nil, err
	}

	backing, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{
		store.WithKey(cfg.Board.Key),
		store.WithLogger(logging.Logger.WithField("backend", cfg.Storage.Backend)),
	}
	if cfg.Board.AsyncWrites {
		opts = append(opts, store.WithAsyncPersistence())
	}
	boardStore := store.New(backing, opts...)
	boardStore.Load(ctx, initial)

	return &BoardContext{
		Paths:  paths,
		Config: cfg,
		KV:     backing,
		Store:  boardStore,
	}, nil
}

// InitialBoard returns the board used when storage holds none.
func InitialBoard(cfg *config.Config) (model.Board, error) {
	if cfg.Board.Seed != "" {
		board, err := model.LoadSeed(cfg.Board.Seed)
		if err != nil {
			return model.Board{}, err
		}
		return board, nil
	}
	lists := cfg.Board.Lists
	if len(lists) == 0 {
		lists = model.DefaultLists()
	}
	return model.NewBoard(lists...), nil
}

// WatchDir returns the directory to watch for external edits, or "" when
// the backend isn't file based or watching is off.
func (c *BoardContext) WatchDir() string {
	if !c.Config.Server.Watch {
		return ""
	}
	if f, ok := c.KV.(*kv.File); ok {
		return f.Dir()
	}
	return ""
}

// Close flushes pending writes and releases the storage.
func (c *BoardContext) Close(ctx context.Context) error {
	c.Store.Close()
	flushErr := c.Store.Flush(ctx)
	if err := kv.Close(c.KV); err != nil {
		return err
	}
	return flushErr
}
