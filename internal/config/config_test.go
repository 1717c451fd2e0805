package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
)

// isolate points every config source at a temp location so host state never
// leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(EnvIncludePath, "")
	t.Chdir(dir)
	return dir
}

func makeTree(t *testing.T, dir string) string {
	t.Helper()
	tree := filepath.Join(dir, "include")
	if err := os.MkdirAll(filepath.Join(tree, "kernel"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(tree, "kernel", "files.if"),
		[]byte("interface(`files_search_var',`\nallow $1 var_t:dir search;\n')\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestLoadFlagWins(t *testing.T) {
	dir := isolate(t)
	tree := makeTree(t, dir)
	t.Setenv(EnvIncludePath, filepath.Join(dir, "does-not-exist"))

	cfg, err := Load(tree)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IncludePath != tree {
		t.Errorf("IncludePath = %q, want %q", cfg.IncludePath, tree)
	}
	if cfg.Depth != 10 {
		t.Errorf("Depth = %d, want default 10", cfg.Depth)
	}
}

func TestLoadEnvBeatsConfigFile(t *testing.T) {
	dir := isolate(t)
	tree := makeTree(t, dir)

	writeConfigFile(t, dir, "include_path: "+filepath.Join(dir, "stale")+"\n")
	t.Setenv(EnvIncludePath, tree)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IncludePath != tree {
		t.Errorf("IncludePath = %q, want env value %q", cfg.IncludePath, tree)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	tree := makeTree(t, dir)

	writeConfigFile(t, dir, "include_path: "+tree+"\ndepth: 4\nno_color: true\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IncludePath != tree || cfg.Depth != 4 || !cfg.NoColor {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMalformedConfigFile(t *testing.T) {
	dir := isolate(t)
	writeConfigFile(t, dir, "include_path: [unterminated\n")

	if _, err := Load(""); !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("want ErrConfig, got %v", err)
	}
}

func TestLoadMissingIncludePath(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "nope")); !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("want ErrConfig, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	tree := makeTree(t, dir)

	err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvIncludePath+"="+tree+"\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides an existing variable, so clear it fully.
	os.Unsetenv(EnvIncludePath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IncludePath != tree {
		t.Errorf("IncludePath = %q, want %q", cfg.IncludePath, tree)
	}
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, "xdg", "semacro")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
