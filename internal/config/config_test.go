package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected default addr %q", cfg.Addr())
	}
	if !cfg.InterceptsHost("api.anthropic.com") {
		t.Fatal("expected api.anthropic.com intercepted by default")
	}
	if cfg.InterceptsHost("example.com") {
		t.Fatal("example.com must not be intercepted by default")
	}
	if cfg.CLI.Claude != "claude" || cfg.CLI.TimeoutSeconds != 300 {
		t.Fatalf("unexpected CLI defaults: %+v", cfg.CLI)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy.yaml")
	content := []byte(`
host: 0.0.0.0
port: 9090
allowed_paths:
  - "^/custom$"
extra_allowed_paths:
  - "^/extra$"
cli:
  claude: /opt/bin/claude
  timeout_seconds: 30
api_keys:
  anthropic: sk-ant-from-file
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
		t.Fatalf("unexpected listen config: %s", cfg.Addr())
	}
	if len(cfg.AllowedPaths) != 1 || cfg.AllowedPaths[0] != "^/custom$" {
		t.Fatalf("unexpected override paths: %v", cfg.AllowedPaths)
	}
	if len(cfg.ExtraAllowedPaths) != 1 || cfg.ExtraAllowedPaths[0] != "^/extra$" {
		t.Fatalf("unexpected additive paths: %v", cfg.ExtraAllowedPaths)
	}
	if cfg.CLI.Claude != "/opt/bin/claude" || cfg.CLI.TimeoutSeconds != 30 {
		t.Fatalf("unexpected CLI config: %+v", cfg.CLI)
	}
	if cfg.APIKeys.Anthropic != "sk-ant-from-file" {
		t.Fatalf("unexpected api key: %q", cfg.APIKeys.Anthropic)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error, got %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected defaults, got port %d", cfg.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PROXY_HOST", "10.0.0.1")
	t.Setenv("PROXY_PORT", "8888")
	t.Setenv("ALLOWED_PATHS", "^/a$, ^/b$")
	t.Setenv("PROXY_VERBOSE", "true")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "10.0.0.1" || cfg.Port != 8888 {
		t.Fatalf("env overrides not applied: %s", cfg.Addr())
	}
	if len(cfg.AllowedPaths) != 2 || cfg.AllowedPaths[1] != "^/b$" {
		t.Fatalf("unexpected allowed paths from env: %v", cfg.AllowedPaths)
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose enabled from env")
	}
	if cfg.APIKeys.Anthropic != "sk-ant-env" {
		t.Fatalf("unexpected api key: %q", cfg.APIKeys.Anthropic)
	}
}
