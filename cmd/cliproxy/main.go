// cliproxy is a transparent HTTP/HTTPS proxy for the Anthropic, OpenAI and
// Gemini APIs. Requests carrying an all-nines API key segment are re-executed
// against the matching local CLI tool (claude, codex, gemini); everything
// else is relayed to the real endpoint unmodified.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pysugar/cli-llm-proxy/internal/allowlist"
	"github.com/pysugar/cli-llm-proxy/internal/config"
	"github.com/pysugar/cli-llm-proxy/internal/db"
	"github.com/pysugar/cli-llm-proxy/internal/logging"
	"github.com/pysugar/cli-llm-proxy/internal/mitm"
	"github.com/pysugar/cli-llm-proxy/internal/proxy"
	"github.com/pysugar/cli-llm-proxy/internal/proxy/handlers"
)

var (
	flagConfig       string
	flagHost         string
	flagPort         int
	flagVerbose      bool
	flagAllowedPaths []string
	flagAllowedPath  []string
	flagCACert       string
	flagCAKey        string
	flagPrintCACert  bool
)

func main() {
	root := &cobra.Command{
		Use:   "cliproxy",
		Short: "Route LLM API traffic to the cloud or to local CLI tools",
		Long: "cliproxy intercepts Anthropic, OpenAI and Gemini API traffic and routes\n" +
			"each request by the shape of its API key: keys whose final dash-separated\n" +
			"segment is all nines run against the local claude/codex/gemini CLI, all\n" +
			"other requests pass through to the real endpoint untouched.",
		RunE: run,
	}

	root.Flags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.Flags().StringVar(&flagHost, "host", "", "listen host (overrides config)")
	root.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose request logging")
	root.Flags().StringSliceVar(&flagAllowedPaths, "allowed-paths", nil, "replace the default path allow-list (regex, repeatable)")
	root.Flags().StringSliceVar(&flagAllowedPath, "allowed-path", nil, "append a pattern to the path allow-list (regex, repeatable)")
	root.Flags().StringVar(&flagCACert, "ca-cert", "", "path to the root certificate PEM (overrides config)")
	root.Flags().StringVar(&flagCAKey, "ca-key", "", "path to the root key PEM (overrides config)")
	root.Flags().BoolVar(&flagPrintCACert, "print-ca-cert", false, "print the root certificate PEM and exit")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	logging.SetVerbose(cfg.Verbose)

	authority, err := buildAuthority(&cfg)
	if err != nil {
		return err
	}
	if flagPrintCACert {
		fmt.Print(string(authority.CACertPEM()))
		return nil
	}

	filter, err := allowlist.New(allowlist.Options{
		Override: cfg.AllowedPaths,
		Additive: cfg.ExtraAllowedPaths,
	})
	if err != nil {
		return err
	}

	var gormDB *gorm.DB
	if cfg.DBPath != "" {
		gormDB, err = db.InitDB(cfg.DBPath)
		if err != nil {
			return err
		}
	}

	warnMissingCLIs(&cfg)

	deps := handlers.NewDeps(&cfg, gormDB)
	srv := proxy.New(&cfg, deps, filter, authority)
	return srv.ListenAndServe()
}

func applyFlags(cfg *config.Config) {
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if len(flagAllowedPaths) > 0 {
		cfg.AllowedPaths = flagAllowedPaths
	}
	if len(flagAllowedPath) > 0 {
		cfg.ExtraAllowedPaths = append(cfg.ExtraAllowedPaths, flagAllowedPath...)
	}
	if flagCACert != "" {
		cfg.CACertFile = flagCACert
	}
	if flagCAKey != "" {
		cfg.CAKeyFile = flagCAKey
	}
}

// buildAuthority loads persisted root material when configured, otherwise
// generates a fresh root and persists it alongside the config so later runs
// present the same anchor.
func buildAuthority(cfg *config.Config) (*mitm.Authority, error) {
	if cfg.CACertFile != "" && cfg.CAKeyFile != "" {
		certPEM, certErr := os.ReadFile(cfg.CACertFile)
		keyPEM, keyErr := os.ReadFile(cfg.CAKeyFile)
		if certErr == nil && keyErr == nil {
			log.Printf("🔏 using root certificate from %s", cfg.CACertFile)
			return mitm.LoadAuthority(certPEM, keyPEM)
		}
		if !os.IsNotExist(certErr) && certErr != nil {
			return nil, certErr
		}
		if !os.IsNotExist(keyErr) && keyErr != nil {
			return nil, keyErr
		}
	}

	authority, err := mitm.GenerateAuthority("cli-llm-proxy root")
	if err != nil {
		return nil, err
	}
	log.Printf("🔏 generated a fresh root certificate; clients must trust it to use HTTPS interception")

	if cfg.CACertFile != "" && cfg.CAKeyFile != "" {
		keyPEM, err := authority.CAKeyPEM()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cfg.CACertFile, authority.CACertPEM(), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(cfg.CAKeyFile, keyPEM, 0o600); err != nil {
			return nil, err
		}
		log.Printf("🔏 persisted root material to %s / %s", cfg.CACertFile, cfg.CAKeyFile)
	}
	return authority, nil
}

func warnMissingCLIs(cfg *config.Config) {
	for _, tool := range []string{cfg.CLI.Claude, cfg.CLI.Codex, cfg.CLI.Gemini} {
		if _, err := exec.LookPath(tool); err != nil {
			log.Printf("⚠️ %s not found in PATH; local-mode requests for it will fail", tool)
		}
	}
}
