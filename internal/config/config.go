// Package config parses the LSP initialize request's initializationOptions
// payload into a Config, degrading unknown or malformed values to
// defaults rather than failing the handshake.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/adibfarrasy/lspintar/internal/lsperrors"
)

// Config is the resolved set of options controlling indexing and the
// dependency cache.
type Config struct {
	// GradleCacheDir is the root directory to scan for JAR dependencies
	// when no build tool invocation is possible.
	GradleCacheDir string `json:"gradle_cache_dir"`

	// BuildOnInit, if true, synchronously populates the dependency cache
	// before accepting requests; if false, it populates lazily on first
	// external lookup.
	BuildOnInit bool `json:"build_on_init"`

	// DBPath is the persisted symbol index file location.
	DBPath string `json:"db_path"`

	// DecompiledSourceCacheDir holds one file per decompiled classfile,
	// named by FQN.
	DecompiledSourceCacheDir string `json:"decompiled_source_cache_dir"`
}

// Default returns a Config rooted under the user's cache directory.
func Default() Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	root := filepath.Join(base, "lspintar")
	return Config{
		BuildOnInit:              false,
		DBPath:                   filepath.Join(root, "index.db"),
		DecompiledSourceCacheDir: filepath.Join(root, "decompiled"),
	}
}

// Parse decodes raw initializationOptions JSON into a Config seeded with
// Default() values, logging and ignoring unknown keys and falling back to
// defaults on malformed JSON: a bad initialization payload degrades the
// configuration rather than aborting startup.
func Parse(raw json.RawMessage, logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Default()
	if len(raw) == 0 {
		return cfg
	}
	var overlay struct {
		GradleCacheDir           *string `json:"gradle_cache_dir"`
		BuildOnInit              *bool   `json:"build_on_init"`
		DBPath                   *string `json:"db_path"`
		DecompiledSourceCacheDir *string `json:"decompiled_source_cache_dir"`
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		logger.Warn("malformed initializationOptions, using defaults",
			zap.Error(lsperrors.ConfigurationError("initializationOptions", err)))
		return cfg
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err == nil {
		for k := range keys {
			switch k {
			case "gradle_cache_dir", "build_on_init", "db_path", "decompiled_source_cache_dir":
			default:
				logger.Warn("ignoring unknown initializationOptions key", zap.String("key", k))
			}
		}
	}
	if overlay.GradleCacheDir != nil {
		cfg.GradleCacheDir = *overlay.GradleCacheDir
	}
	if overlay.BuildOnInit != nil {
		cfg.BuildOnInit = *overlay.BuildOnInit
	}
	if overlay.DBPath != nil {
		cfg.DBPath = *overlay.DBPath
	}
	if overlay.DecompiledSourceCacheDir != nil {
		cfg.DecompiledSourceCacheDir = *overlay.DecompiledSourceCacheDir
	}
	return cfg
}
