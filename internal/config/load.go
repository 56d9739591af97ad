package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "WTM"

// FileNames are the configuration files looked up in the repository root,
// in order. The first one that exists wins.
var FileNames = []string{".wtm.yaml", ".wtm.yml", ".wtm.json", ".wtm.jsonc", ".wtm.toml"}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// File is an explicit configuration file. It must exist.
	File string

	// SearchDir is searched for FileNames when File is empty. Usually the
	// main worktree.
	SearchDir string
}

// Loaded is the result of Load.
type Loaded struct {
	Config *Config

	// File is the configuration file that was read, or "" when only
	// defaults and the environment applied.
	File string
}

// Load reads the configuration from defaults, file and environment into a
// Config and validates it.
func Load(opts LoadOptions) (*Loaded, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := opts.File
	if file == "" && opts.SearchDir != "" {
		file = findFile(opts.SearchDir)
	}
	if file != "" {
		if err := readFile(v, file); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &Loaded{Config: &cfg, File: file}, nil
}

// setDefaults registers every key so that environment overrides apply
// even when no file mentions the key.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("paths.worktree_dir", d.Paths.WorktreeDir)
	v.SetDefault("paths.dir_prefix", d.Paths.DirPrefix)
	v.SetDefault("branch.prefix", d.Branch.Prefix)
	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
	v.SetDefault("sync.base", d.Sync.Base)
	v.SetDefault("cleanup.containers", d.Cleanup.Containers)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

func findFile(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// readFile merges path into v. JSONC files (JSON with comments and
// trailing commas) are converted to plain JSON first; every other format
// is chosen by extension.
func readFile(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".jsonc") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
