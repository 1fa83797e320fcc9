package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amterp/taskboard/internal/config"
	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/util"
	"github.com/amterp/ra"
)

func registerInit(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("init")
	cmd.SetDescription("Initialize a taskboard in the current directory")

	ctx.InitLists, _ = ra.NewString("lists").
		SetShort("l").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Comma-separated list headings (e.g., \"To Do,In Progress,Done\")").
		Register(cmd)

	ctx.InitBackend, _ = ra.NewString("backend").
		SetShort("b").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Storage backend: memory, file, redis, or sqlite (default: file)").
		Register(cmd)

	ctx.InitSeed, _ = ra.NewString("seed").
		SetShort("s").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("TOML file with the initial board").
		Register(cmd)

	ctx.InitForce, _ = ra.NewBool("force").
		SetShort("f").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Overwrite an existing config without asking").
		Register(cmd)

	ctx.InitUsed, _ = parent.RegisterCmd(cmd)
}

// parseLists parses comma-separated headings into list names.
// Returns nil if the input is empty (use defaults).
func parseLists(listsStr string) ([]string, error) {
	if listsStr == "" {
		return nil, nil
	}

	var lists []string
	seen := make(map[string]bool)

	for _, heading := range strings.Split(listsStr, ",") {
		heading = strings.TrimSpace(heading)
		if heading == "" {
			continue
		}
		name := util.ListName(heading)
		if name == "" {
			return nil, fmt.Errorf("invalid list heading %q (needs at least one letter or digit)", heading)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate list %q", name)
		}
		seen[name] = true
		lists = append(lists, name)
	}

	if len(lists) == 0 {
		return nil, fmt.Errorf("at least one list required when using --lists")
	}
	return lists, nil
}

// buildInitConfig creates the config written by init.
func buildInitConfig(lists []string, backend, seed string) (*config.Config, error) {
	cfg := config.Default()
	cfg.Board.Lists = lists
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if seed != "" {
		abs, err := filepath.Abs(seed)
		if err != nil {
			return nil, fmt.Errorf("invalid seed path: %w", err)
		}
		cfg.Board.Seed = abs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInit(dataDir, listsStr, backend, seed string, force, nonInteractive bool) {
	lists, err := parseLists(listsStr)
	if err != nil {
		Fatal(err)
	}

	cfg, err := buildInitConfig(lists, backend, seed)
	if err != nil {
		Fatal(err)
	}

	app, err := NewApp(!nonInteractive, dataDir)
	if err != nil {
		Fatal(err)
	}

	if app.RequireInit() == nil && !force {
		if !app.Interactive {
			Fatal(&tberr.AlreadyExistsError{Resource: "config", ID: app.Paths.ConfigPath()})
		}
		overwrite, err := app.Prompter.Confirm("A taskboard config already exists here. Overwrite it?", false)
		if err != nil {
			Fatal(err)
		}
		if !overwrite {
			PrintInfo("Left existing config untouched")
			return
		}
	}

	if err := config.Save(app.Paths, cfg); err != nil {
		Fatal(err)
	}

	// Reload so storage paths resolve against the data directory
	app.Config, err = config.Load(app.Paths)
	if err != nil {
		Fatal(err)
	}

	ctx := context.Background()
	bc, err := app.OpenBoard(ctx)
	if err != nil {
		Fatal(err)
	}
	defer closeBoard(bc)

	if err := bc.Store.Save(ctx); err != nil {
		Fatal(err)
	}

	board := bc.Store.Snapshot()
	PrintSuccess("Initialized taskboard in %s", app.Paths.DataRoot())
	PrintInfo("Lists: %s", strings.Join(board.ListNames(), ", "))
}
