package version

import (
	"fmt"
)

// SchemaVersionError indicates a schema version problem in the config file.
type SchemaVersionError struct {
	FilePath    string
	Found       string // "missing" or the schema string that was read
	Expected    string
	MinRequired string // Minimum taskboard release required (if upgrade needed)
}

func (e *SchemaVersionError) Error() string {
	if e.MinRequired != "" {
		return fmt.Sprintf(
			"config schema %s requires taskboard >= %s (file: %s, supports up to: %s)",
			e.Found, e.MinRequired, e.FilePath, e.Expected,
		)
	}
	if e.Found == "missing" {
		return fmt.Sprintf("config has no schema version (file: %s); expected %s", e.FilePath, e.Expected)
	}
	return fmt.Sprintf(
		"config has invalid schema version: found %s, expected %s (file: %s)",
		e.Found, e.Expected, e.FilePath,
	)
}

// MissingConfigSchema creates an error for a config file without a schema field.
func MissingConfigSchema(path string) error {
	return &SchemaVersionError{
		FilePath: path,
		Found:    "missing",
		Expected: CurrentConfigSchema(),
	}
}

// InvalidConfigSchema creates an error for a config with an unsupported schema.
func InvalidConfigSchema(path, found string) error {
	e := &SchemaVersionError{
		FilePath: path,
		Found:    found,
		Expected: CurrentConfigSchema(),
	}
	if v, err := ParseConfigVersion(found); err == nil && v > CurrentConfigVersion {
		if minVer, ok := MinToolVersion[found]; ok {
			e.MinRequired = minVer
		} else {
			e.MinRequired = "a newer version"
		}
	}
	return e
}
