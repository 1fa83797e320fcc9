package cli

import (
	"os"

	"github.com/amterp/ra"
)

// CommandContext holds parsed values and used flags for all commands.
type CommandContext struct {
	// Global flags
	NonInteractive *bool
	DataDir        *string

	// init command
	InitUsed    *bool
	InitLists   *string
	InitBackend *string
	InitSeed    *string
	InitForce   *bool

	// add command
	AddUsed  *bool
	AddTitle *string
	AddList  *string

	// show command
	ShowUsed *bool
	ShowJson *bool

	// move command
	MoveUsed  *bool
	MoveItem  *string
	MoveList  *string
	MoveIndex *int

	// list command
	ListUsed *bool

	// list add
	ListAddUsed    *bool
	ListAddHeading *string

	// serve command
	ServeUsed   *bool
	ServePort   *int
	ServeNoOpen *bool

	// completion command
	CompletionUsed  *bool
	CompletionShell *string
}

// Run is the main entry point for the CLI.
func Run() {
	ctx := &CommandContext{}

	cmd := ra.NewCmd("taskboard")
	cmd.SetDescription("Ordered task lists with drag-and-drop reordering")

	// Global flag for non-interactive mode
	ctx.NonInteractive, _ = ra.NewBool("non-interactive").
		SetShort("I").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Fail instead of prompting for missing input").
		Register(cmd, ra.WithGlobal(true))

	ctx.DataDir, _ = ra.NewString("data-dir").
		SetShort("d").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Data directory (default: discovered .taskboard)").
		Register(cmd, ra.WithGlobal(true))

	// Register all subcommands
	registerInit(cmd, ctx)
	registerAdd(cmd, ctx)
	registerShow(cmd, ctx)
	registerMove(cmd, ctx)
	registerList(cmd, ctx)
	registerServe(cmd, ctx)
	registerCompletion(cmd, ctx)

	// Parse command line
	cmd.ParseOrExit(os.Args[1:])

	// Execute the appropriate command
	executeCommand(ctx, cmd)
}

func executeCommand(ctx *CommandContext, rootCmd *ra.Cmd) {
	switch {
	case *ctx.InitUsed:
		runInit(*ctx.DataDir, *ctx.InitLists, *ctx.InitBackend, *ctx.InitSeed, *ctx.InitForce, *ctx.NonInteractive)

	case *ctx.AddUsed:
		runAdd(*ctx.DataDir, *ctx.AddTitle, *ctx.AddList, *ctx.NonInteractive)

	case *ctx.ShowUsed:
		runShow(*ctx.DataDir, *ctx.ShowJson)

	case *ctx.MoveUsed:
		runMove(*ctx.DataDir, *ctx.MoveItem, *ctx.MoveList, *ctx.MoveIndex, *ctx.NonInteractive)

	case *ctx.ListAddUsed:
		runListAdd(*ctx.DataDir, *ctx.ListAddHeading)

	case *ctx.ServeUsed:
		runServe(*ctx.DataDir, *ctx.ServePort, *ctx.ServeNoOpen)

	case *ctx.CompletionUsed:
		runCompletion(*ctx.CompletionShell, rootCmd)
	}
}
