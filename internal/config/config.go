// Package config resolves the policy include path and query defaults.
// Resolution priority: explicit flag, SEMACRO_INCLUDE_PATH (with .env
// support), YAML config file, default system location.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
)

const (
	// EnvIncludePath overrides the include path without a flag.
	EnvIncludePath = "SEMACRO_INCLUDE_PATH"

	// DefaultIncludePath is where selinux-policy-devel installs the
	// reference policy headers.
	DefaultIncludePath = "/usr/share/selinux/devel/include"
)

// Config holds resolved settings.
type Config struct {
	IncludePath string `yaml:"include_path"`
	Depth       int    `yaml:"depth"`
	NoColor     bool   `yaml:"no_color"`
}

// configFile returns the user config location ($XDG_CONFIG_HOME or
// ~/.config).
func configFile() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "semacro", "config.yaml")
}

// Load resolves the configuration. flagPath is the --include-path value
// ("" when unset). Missing config files are fine; an include path that
// resolves to nothing usable is a wrapped ErrConfig.
func Load(flagPath string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{Depth: 10}
	if path := configFile(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: parsing %s: %v", apperrors.ErrConfig, path, err)
			}
		}
	}

	switch {
	case flagPath != "":
		cfg.IncludePath = flagPath
	case os.Getenv(EnvIncludePath) != "":
		cfg.IncludePath = os.Getenv(EnvIncludePath)
	case cfg.IncludePath != "":
		// from config file
	default:
		cfg.IncludePath = detectIncludePath()
	}

	if cfg.IncludePath == "" {
		return Config{}, fmt.Errorf(
			"%w: cannot find a policy include directory; install selinux-policy-devel, "+
				"set %s, or pass --include-path", apperrors.ErrConfig, EnvIncludePath)
	}
	if info, err := os.Stat(cfg.IncludePath); err != nil || !info.IsDir() {
		return Config{}, fmt.Errorf("%w: include path %q does not exist", apperrors.ErrConfig, cfg.IncludePath)
	}
	return cfg, nil
}

// detectIncludePath returns the default path only if it actually contains
// policy files.
func detectIncludePath() string {
	if hasPolicyFiles(DefaultIncludePath) {
		return DefaultIncludePath
	}
	return ""
}

func hasPolicyFiles(root string) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && (strings.HasSuffix(path, ".if") || strings.HasSuffix(path, ".spt")) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
