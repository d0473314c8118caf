// Package config loads proxy configuration from an optional YAML file with
// environment-variable overrides. The resulting Config is built once at
// startup and passed by reference into the server and handlers; there is no
// process-global configuration state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CLIConfig names the local executables and bounds their runtime.
type CLIConfig struct {
	Claude         string `yaml:"claude"`
	Codex          string `yaml:"codex"`
	Gemini         string `yaml:"gemini"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// APIKeys holds optional server-side keys injected on the cloud leg when a
// client presents no credential of its own.
type APIKeys struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Gemini    string `yaml:"gemini"`
}

type Config struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Verbose bool   `yaml:"verbose"`

	CACertFile string `yaml:"ca_cert_file"`
	CAKeyFile  string `yaml:"ca_key_file"`

	// AllowedPaths replaces the default allow-list entirely;
	// ExtraAllowedPaths appends to whatever base is in effect.
	AllowedPaths      []string `yaml:"allowed_paths"`
	ExtraAllowedPaths []string `yaml:"extra_allowed_paths"`

	// InterceptHosts are the CONNECT targets the proxy will terminate TLS
	// for. Anything else is refused without minting a certificate.
	InterceptHosts []string `yaml:"intercept_hosts"`

	CLI     CLIConfig `yaml:"cli"`
	APIKeys APIKeys   `yaml:"api_keys"`

	// DBPath enables the sqlite request log when non-empty.
	DBPath string `yaml:"db_path"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Host: "127.0.0.1",
		Port: 8080,
		InterceptHosts: []string{
			"api.anthropic.com",
			"api.openai.com",
			"generativelanguage.googleapis.com",
		},
		CLI: CLIConfig{
			Claude:         "claude",
			Codex:          "codex",
			Gemini:         "gemini",
			TimeoutSeconds: 300,
		},
	}
}

// Load reads the YAML file at path (missing file is fine, defaults apply)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config. Env wins over
// the file, matching the original launcher's precedence.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PROXY_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PROXY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_PATHS"); v != "" {
		c.AllowedPaths = splitList(v)
	}
	if v := os.Getenv("INTERCEPT_HOSTS"); v != "" {
		c.InterceptHosts = splitList(v)
	}
	if v := os.Getenv("PROXY_CA_CERT"); v != "" {
		c.CACertFile = v
	}
	if v := os.Getenv("PROXY_CA_KEY"); v != "" {
		c.CAKeyFile = v
	}
	if v := os.Getenv("PROXY_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PROXY_VERBOSE"); v == "1" || strings.EqualFold(v, "true") {
		c.Verbose = true
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.APIKeys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKeys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKeys.Gemini = v
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// InterceptsHost reports whether the proxy terminates TLS for host
// (port stripped by the caller).
func (c *Config) InterceptsHost(host string) bool {
	for _, h := range c.InterceptHosts {
		if h == host {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
