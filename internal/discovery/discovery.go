package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amterp/taskboard/internal/config"
)

// Result contains the discovered project root.
type Result struct {
	ProjectRoot  string // Absolute path to the directory holding the data dir
	DataLocation string // Relative data location (empty = default .taskboard/)
}

// DiscoverProject finds the project root by walking up from cwd.
// Returns nil if no project found (not initialized).
func DiscoverProject() (*Result, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return DiscoverProjectFrom(cwd)
}

// DiscoverProjectFrom finds the project root starting from a given directory.
// A directory qualifies when it holds .taskboard/taskboard.toml.
func DiscoverProjectFrom(startDir string) (*Result, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	dir := absStart
	for {
		cfgPath := filepath.Join(dir, config.DefaultDataDir, config.ConfigFileName)
		if _, err := os.Stat(cfgPath); err == nil {
			return &Result{ProjectRoot: dir}, nil
		}

		// Move up to parent
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, no project found
			return nil, nil
		}
		dir = parent
	}
}
