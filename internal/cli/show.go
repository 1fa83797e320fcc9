package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/ra"
)

func registerShow(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("show")
	cmd.SetDescription("Display the board")

	ctx.ShowJson, _ = ra.NewBool("json").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Output as JSON").
		Register(cmd)

	ctx.ShowUsed, _ = parent.RegisterCmd(cmd)
}

func runShow(dataDir string, jsonOutput bool) {
	app, err := NewApp(false, dataDir)
	if err != nil {
		Fatal(err)
	}

	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	bc, err := app.OpenBoard(context.Background())
	if err != nil {
		Fatal(err)
	}
	defer closeBoard(bc)

	board := bc.Store.Snapshot()
	if jsonOutput {
		if err := printJson(NewBoardOutput(board)); err != nil {
			Fatal(err)
		}
		return
	}

	printBoard(os.Stdout, board)
}

func printBoard(w io.Writer, board model.Board) {
	if len(board.Lists) == 0 {
		fmt.Fprintln(w, RenderMuted("No lists"))
		return
	}

	for i, list := range board.Lists {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, RenderListHeader(list.Name, len(list.Items)))

		if len(list.Items) == 0 {
			fmt.Fprintf(w, "  %s\n", RenderMuted("empty"))
			continue
		}
		for idx, item := range list.Items {
			fmt.Fprintf(w, "  %s %s  %s\n", RenderPosition(idx), RenderID(item.ID), item.Title)
		}
	}
}
