package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/ra"
)

// completionCtx provides lightweight board access for shell completion.
// Completion functions run during ParseOrExit, before the command runs,
// so this loads the board once on its own.
type completionCtx struct {
	once  sync.Once
	board model.Board
	err   error
}

var compCtx completionCtx

func initCompletionCtx() {
	compCtx.once.Do(func() {
		app, err := NewApp(false, dataDirFromArgs(os.Args))
		if err != nil {
			compCtx.err = err
			return
		}
		if err := app.RequireInit(); err != nil {
			compCtx.err = err
			return
		}

		bc, err := app.OpenBoard(context.Background())
		if err != nil {
			compCtx.err = err
			return
		}
		defer closeBoard(bc)
		compCtx.board = bc.Store.Snapshot()
	})
}

// completeLists returns list names matching the given prefix.
func completeLists(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return matchLists(compCtx.board, toComplete), ra.CompletionDirectiveNoFileComp
}

// completeItems returns item ids matching the given prefix.
func completeItems(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return matchItems(compCtx.board, toComplete), ra.CompletionDirectiveNoFileComp
}

func matchLists(board model.Board, prefix string) []string {
	var result []string
	for _, name := range board.ListNames() {
		if strings.HasPrefix(name, prefix) {
			result = append(result, name)
		}
	}
	return result
}

func matchItems(board model.Board, prefix string) []string {
	var result []string
	for _, l := range board.Lists {
		for _, item := range l.Items {
			if strings.HasPrefix(item.ID, prefix) {
				result = append(result, item.ID)
			}
		}
	}
	return result
}

// dataDirFromArgs scans the argument list for an explicit -d/--data-dir flag value.
func dataDirFromArgs(args []string) string {
	for i, arg := range args {
		// --data-dir=value or -d=value (skip empty values so discovery runs)
		if strings.HasPrefix(arg, "--data-dir=") {
			if v := strings.TrimPrefix(arg, "--data-dir="); v != "" {
				return v
			}
		}
		if strings.HasPrefix(arg, "-d=") {
			if v := strings.TrimPrefix(arg, "-d="); v != "" {
				return v
			}
		}
		// --data-dir value or -d value
		if (arg == "--data-dir" || arg == "-d") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// registerCompletion adds the "taskboard completion <shell>" command.
func registerCompletion(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("completion")
	cmd.SetDescription("Output shell completion script")

	ctx.CompletionShell, _ = ra.NewString("shell").
		SetUsage("Shell type").
		SetEnumConstraint([]string{"bash", "zsh"}).
		Register(cmd)

	ctx.CompletionUsed, _ = parent.RegisterCmd(cmd)
}

// runCompletion outputs the shell completion script to stdout.
func runCompletion(shell string, rootCmd *ra.Cmd) {
	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		err = rootCmd.GenZshCompletion(os.Stdout)
	default:
		Fatal(fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell))
	}
	if err != nil {
		Fatal(fmt.Errorf("failed to generate completion script: %w", err))
	}
}
