package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amterp/taskboard/internal/api"
	"github.com/amterp/taskboard/internal/config"
	"github.com/amterp/taskboard/internal/discovery"
	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/logging"
	"github.com/amterp/taskboard/internal/prompt"
	"github.com/amterp/taskboard/internal/resolver"
)

// App holds all the dependencies for the CLI.
type App struct {
	Paths        *config.Paths
	Config       *config.Config
	Prompter     prompt.Prompter
	ListResolver *resolver.ListResolver
	ProjectRoot  string
	Interactive  bool
}

// NewApp creates a new App with all dependencies wired up.
// If interactive is false, uses NoopPrompter that fails on prompts.
// An explicit dataDir skips discovery.
func NewApp(interactive bool, dataDir string) (*App, error) {
	paths, projectRoot, err := resolvePaths(dataDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths)
	if err != nil {
		return nil, err
	}

	var prompter prompt.Prompter
	if interactive {
		prompter = prompt.NewHuhPrompter()
	} else {
		prompter = &prompt.NoopPrompter{}
	}

	return &App{
		Paths:        paths,
		Config:       cfg,
		Prompter:     prompter,
		ListResolver: resolver.NewListResolver(prompter),
		ProjectRoot:  projectRoot,
		Interactive:  interactive,
	}, nil
}

// resolvePaths picks the data directory: the explicit one, the discovered one,
// or .taskboard in the working directory when nothing is initialized yet.
func resolvePaths(dataDir string) (*config.Paths, string, error) {
	if dataDir != "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, "", fmt.Errorf("invalid data directory: %w", err)
		}
		return config.NewPaths(filepath.Dir(abs), abs), filepath.Dir(abs), nil
	}

	result, err := discovery.DiscoverProject()
	if err != nil {
		return nil, "", err
	}
	if result != nil {
		return config.NewPaths(result.ProjectRoot, result.DataLocation), result.ProjectRoot, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	// projectRoot stays empty - RequireInit() will catch it
	return config.NewPaths(cwd, ""), "", nil
}

// RequireInit ensures a config file exists for the data directory.
func (a *App) RequireInit() error {
	if _, err := os.Stat(a.Paths.ConfigPath()); err != nil {
		return &tberr.NotInitializedError{Path: a.Paths.DataRoot()}
	}
	return nil
}

// OpenBoard loads the board from the configured storage. Logs from the
// store go to the configured log file, if any, so they don't interleave
// with command output.
func (a *App) OpenBoard(ctx context.Context) (*api.BoardContext, error) {
	if err := logging.Init(a.logOptions()); err != nil {
		return nil, err
	}
	return api.BuildBoardContext(ctx, a.Paths, a.Config)
}

func (a *App) logOptions() logging.Options {
	return logging.Options{
		Level:  a.Config.Log.Level,
		Format: a.Config.Log.Format,
		File:   a.Config.Log.File,
	}
}

// closeBoard flushes the board and reports failures without exiting.
func closeBoard(bc *api.BoardContext) {
	if err := bc.Close(context.Background()); err != nil {
		PrintWarning("failed to save board: %v", err)
	}
}

// Fatal prints an error and exits.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
