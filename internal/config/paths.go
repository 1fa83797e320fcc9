package config

import (
	"path/filepath"
)

const (
	DefaultDataDir = ".taskboard"
	ConfigFileName = "taskboard.toml"
	KVDirName      = "kv"
	SQLiteFileName = "taskboard.db"
	LogFileName    = "taskboard.log"
)

// Paths provides path resolution for taskboard data files.
type Paths struct {
	projectRoot  string
	dataLocation string // Custom location from config, empty for default
}

// NewPaths creates a new Paths resolver for the given project.
func NewPaths(projectRoot string, dataLocation string) *Paths {
	return &Paths{
		projectRoot:  projectRoot,
		dataLocation: dataLocation,
	}
}

// ProjectRoot returns the directory the data directory lives in.
func (p *Paths) ProjectRoot() string {
	return p.projectRoot
}

// DataRoot returns the root directory for taskboard data.
func (p *Paths) DataRoot() string {
	if p.dataLocation != "" {
		if filepath.IsAbs(p.dataLocation) {
			return p.dataLocation
		}
		return filepath.Join(p.projectRoot, p.dataLocation)
	}
	return filepath.Join(p.projectRoot, DefaultDataDir)
}

// ConfigPath returns the config file path.
func (p *Paths) ConfigPath() string {
	return filepath.Join(p.DataRoot(), ConfigFileName)
}

// KVDir returns the directory used by the file key-value backend.
func (p *Paths) KVDir() string {
	return filepath.Join(p.DataRoot(), KVDirName)
}

// SQLitePath returns the database path used by the SQLite backend.
func (p *Paths) SQLitePath() string {
	return filepath.Join(p.DataRoot(), SQLiteFileName)
}

// LogPath returns the default log file path.
func (p *Paths) LogPath() string {
	return filepath.Join(p.DataRoot(), LogFileName)
}
