package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current schema version of taskboard.toml - bump when making breaking changes.
//
// CHECKLIST when bumping:
//  1. Update the constant below
//  2. Add entry to MinToolVersion (tested by TestMinToolVersionCompleteness)
//  3. Teach config.Load to upgrade the previous shape
const CurrentConfigVersion = 1

// ConfigSchemaPrefix prefixes the schema string stored in taskboard.toml.
const ConfigSchemaPrefix = "config/"

// MinToolVersion maps schema identifiers to the minimum taskboard release that reads them.
var MinToolVersion = map[string]string{
	"config/1": "0.1.0",
}

// FormatConfigSchema creates a config schema string from a version number.
// Example: FormatConfigSchema(1) returns "config/1"
func FormatConfigSchema(v int) string {
	return fmt.Sprintf("%s%d", ConfigSchemaPrefix, v)
}

// ParseConfigVersion extracts the version number from a config schema string.
func ParseConfigVersion(schema string) (int, error) {
	if !strings.HasPrefix(schema, ConfigSchemaPrefix) {
		return 0, fmt.Errorf("invalid config schema format: %q (expected %sN)", schema, ConfigSchemaPrefix)
	}
	versionStr := strings.TrimPrefix(schema, ConfigSchemaPrefix)
	v, err := strconv.Atoi(versionStr)
	if err != nil {
		return 0, fmt.Errorf("invalid config schema version: %q", versionStr)
	}
	if v < 1 {
		return 0, fmt.Errorf("invalid config schema version: %d (must be >= 1)", v)
	}
	return v, nil
}

// CurrentConfigSchema returns the current config schema string.
func CurrentConfigSchema() string {
	return FormatConfigSchema(CurrentConfigVersion)
}
