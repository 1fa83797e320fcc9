package cli

import (
	"context"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/resolver"
	"github.com/amterp/taskboard/internal/store"
	"github.com/amterp/ra"
)

func registerMove(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("move")
	cmd.SetDescription("Move a task within its list or to another list")

	ctx.MoveItem, _ = ra.NewString("item").
		SetUsage("Task ID or title").
		SetCompletionFunc(completeItems).
		Register(cmd)

	ctx.MoveList, _ = ra.NewString("list").
		SetOptional(true).
		SetUsage("Destination list (default: the task's current list)").
		SetCompletionFunc(completeLists).
		Register(cmd)

	ctx.MoveIndex, _ = ra.NewInt("index").
		SetShort("i").
		SetOptional(true).
		SetDefault(-1).
		SetFlagOnly(true).
		SetUsage("Destination position, 0-based (-1 for the end)").
		Register(cmd)

	ctx.MoveUsed, _ = parent.RegisterCmd(cmd)
}

func runMove(dataDir, itemRef, list string, index int, nonInteractive bool) {
	app, err := NewApp(!nonInteractive, dataDir)
	if err != nil {
		Fatal(err)
	}

	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	ctx := context.Background()
	bc, err := app.OpenBoard(ctx)
	if err != nil {
		Fatal(err)
	}
	defer closeBoard(bc)

	board := bc.Store.Snapshot()
	ref, err := resolver.ResolveItem(board, itemRef)
	if err != nil {
		Fatal(err)
	}

	dstList := ref.List
	if list != "" {
		dstList, err = app.ListResolver.Resolve(board, list, app.Interactive)
		if err != nil {
			Fatal(err)
		}
	}

	dst, err := moveDestination(board, ref, dstList, index)
	if err != nil {
		Fatal(err)
	}

	if err := applyMove(ctx, bc.Store, ref, dstList, dst); err != nil {
		Fatal(err)
	}
	if err := bc.Store.Flush(ctx); err != nil {
		Fatal(err)
	}

	PrintSuccess("Moved %s to %s at position %d", RenderID(ref.Item.ID), dstList, dst)
}

// moveDestination converts the --index value into a destination index.
// -1 means the end of the list. For a move within a list the index is in
// the list as it looks after the task is taken out.
func moveDestination(board model.Board, ref resolver.ItemRef, dstList string, index int) (int, error) {
	n, ok := board.Len(dstList)
	if !ok {
		return 0, tberr.ListNotFound(dstList)
	}

	last := n
	if dstList == ref.List {
		last = n - 1
	}

	if index == -1 {
		return last, nil
	}
	if index < 0 || index > last {
		return 0, tberr.IndexOutOfRange("index", index, last)
	}
	return index, nil
}

func applyMove(ctx context.Context, s *store.BoardStore, ref resolver.ItemRef, dstList string, dst int) error {
	if dstList == ref.List {
		return s.MoveWithinList(ctx, ref.List, ref.Index, dst)
	}
	return s.MoveAcrossLists(ctx, ref.List, ref.Index, dstList, dst)
}
