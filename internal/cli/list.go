package cli

import (
	"context"
	"fmt"

	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/util"
	"github.com/amterp/ra"
)

func registerList(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("list")
	cmd.SetDescription("Manage board lists")

	registerListAdd(cmd, ctx)

	ctx.ListUsed, _ = parent.RegisterCmd(cmd)
}

func registerListAdd(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("add")
	cmd.SetDescription("Append an empty list to the board")

	ctx.ListAddHeading, _ = ra.NewString("heading").
		SetUsage("List heading (e.g., \"In Review\" becomes in_review)").
		Register(cmd)

	ctx.ListAddUsed, _ = parent.RegisterCmd(cmd)
}

func runListAdd(dataDir, heading string) {
	name := util.ListName(heading)
	if name == "" {
		Fatal(fmt.Errorf("invalid list heading %q (needs at least one letter or digit)", heading))
	}

	app, err := NewApp(false, dataDir)
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

	if err := bc.Store.AddList(ctx, name); err != nil {
		Fatal(err)
	}
	if err := bc.Store.Flush(ctx); err != nil {
		Fatal(err)
	}

	PrintSuccess("Added list %s (%s)", RenderBold(model.DisplayName(name)), RenderMuted(name))
}
