package cli

import (
	"context"
	"strings"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/ra"
)

func registerAdd(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("add")
	cmd.SetDescription("Add a task to the end of a list")

	ctx.AddTitle, _ = ra.NewString("title").
		SetOptional(true).
		SetUsage("Task title").
		Register(cmd)

	ctx.AddList, _ = ra.NewString("list").
		SetShort("l").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Target list (name or heading)").
		SetCompletionFunc(completeLists).
		Register(cmd)

	ctx.AddUsed, _ = parent.RegisterCmd(cmd)
}

func runAdd(dataDir, title, list string, nonInteractive bool) {
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

	if strings.TrimSpace(title) == "" {
		if !app.Interactive {
			Fatal(tberr.InvalidField("title", "required in non-interactive mode"))
		}
		title, err = app.Prompter.InputTitle("Task title", "")
		if err != nil {
			Fatal(err)
		}
	}

	listName, err := app.ListResolver.Resolve(bc.Store.Snapshot(), list, app.Interactive)
	if err != nil {
		Fatal(err)
	}

	item, err := bc.Store.AddItem(ctx, listName, title)
	if err != nil {
		Fatal(err)
	}
	if err := bc.Store.Flush(ctx); err != nil {
		Fatal(err)
	}

	PrintSuccess("Added %s to %s", RenderID(item.ID), listName)
}
