package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/version"
)

// Storage backends understood by kv.Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the project configuration, stored as taskboard.toml in the data directory.
// Schema changes require a version bump - see internal/version/version.go.
type Config struct {
	Schema  string        `toml:"schema"`
	Board   BoardConfig   `toml:"board"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// BoardConfig controls the board itself.
type BoardConfig struct {
	Key         string   `toml:"key"`                    // Storage slot for the snapshot
	Seed        string   `toml:"seed,omitempty"`         // TOML seed file used when nothing is stored
	Lists       []string `toml:"lists,omitempty"`        // Lists of a fresh board when there's no seed
	AsyncWrites bool     `toml:"async_writes,omitempty"` // Persist from a background writer
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir,omitempty"`    // file backend
	SQLite  string      `toml:"sqlite,omitempty"` // sqlite backend database path
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Prefix   string `toml:"prefix,omitempty"`
}

// ServerConfig configures `taskboard serve`.
type ServerConfig struct {
	Port  int  `toml:"port"`
	Watch bool `toml:"watch"` // Reload the board when the file backend changes on disk
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format,omitempty"`
	File   string `toml:"file,omitempty"`
}

// Default returns the configuration used when no config file exists.
// Storage paths are left empty; Load fills them relative to the data directory.
func Default() *Config {
	return &Config{
		Schema: version.CurrentConfigSchema(),
		Board: BoardConfig{
			Key: "tasks-data",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "taskboard:",
			},
		},
		Server: ServerConfig{
			Port:  3000,
			Watch: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file, layering it over the defaults.
// A missing file yields the defaults.
func Load(paths *Paths) (*Config, error) {
	cfg := Default()
	path := paths.ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.resolve(paths)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.Schema = ""
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	// Strict version validation
	if cfg.Schema == "" {
		return nil, version.MissingConfigSchema(path)
	}
	if cfg.Schema != version.CurrentConfigSchema() {
		return nil, version.InvalidConfigSchema(path, cfg.Schema)
	}

	cfg.resolve(paths)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file, creating the data directory if needed.
func Save(paths *Paths, cfg *Config) error {
	// Stamp current schema version
	cfg.Schema = version.CurrentConfigSchema()

	if err := os.MkdirAll(paths.DataRoot(), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.Create(paths.ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks values that can't be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return tberr.InvalidField("storage.backend",
			fmt.Sprintf("%q (expected one of memory, file, redis, sqlite)", c.Storage.Backend))
	}
	if c.Board.Key == "" {
		return tberr.InvalidField("board.key", "cannot be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return tberr.InvalidField("server.port", fmt.Sprintf("%d out of range", c.Server.Port))
	}
	return nil
}

// resolve makes relative paths in the config relative to the data directory.
func (c *Config) resolve(paths *Paths) {
	c.Storage.Dir = resolvePath(paths, c.Storage.Dir, paths.KVDir())
	c.Storage.SQLite = resolvePath(paths, c.Storage.SQLite, paths.SQLitePath())
	if c.Board.Seed != "" && !filepath.IsAbs(c.Board.Seed) {
		c.Board.Seed = filepath.Join(paths.DataRoot(), c.Board.Seed)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(paths.DataRoot(), c.Log.File)
	}
}

func resolvePath(paths *Paths, value, fallback string) string {
	if value == "" {
		return fallback
	}
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(paths.DataRoot(), value)
}
