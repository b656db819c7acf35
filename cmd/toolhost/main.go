// Package main provides the toolhost MCP server.
// It serves the echo, arithmetic, time, resource, command and browser tools
// together with a few prompt templates over stdio or streamable HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/toolhost/pkg/catalog"
	"github.com/entrhq/toolhost/pkg/config"
	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/resources"
	"github.com/entrhq/toolhost/pkg/server"
	"github.com/entrhq/toolhost/pkg/tools/browser"
	"github.com/entrhq/toolhost/pkg/tools/shell"
)

const version = "0.1.0"

// Flags holds the command line flags
type Flags struct {
	ConfigPath  string
	EnvFile     string
	Transport   string
	HTTPAddr    string
	ResourceDir string
	LogLevel    string
	ShowVersion bool
}

func main() {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("toolhost v%s\n", version)
		return
	}

	if err := config.LoadDotEnv(flags.EnvFile); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := flags.apply(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatalf("Application error: %v", err)
	}
}

// parseFlags parses command line flags
func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "", "Path to a YAML configuration file (optional)")
	flag.StringVar(&flags.EnvFile, "env-file", ".env", "Path to a .env file loaded before the environment is read")
	flag.StringVar(&flags.Transport, "transport", "", "Transport to serve: stdio or http (overrides config)")
	flag.StringVar(&flags.HTTPAddr, "addr", "", "Listen address for the http transport (overrides config)")
	flag.StringVar(&flags.ResourceDir, "resources", "", "Directory holding static resources (overrides config)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flag.BoolVar(&flags.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "toolhost - an MCP server with shell and browser tools\n\n")
		fmt.Fprintf(os.Stderr, "Usage: toolhost [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s*   override any configuration key, e.g. TOOLHOST_COMMAND_TIMEOUT=30s\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  toolhost                                 # Serve over stdio\n")
		fmt.Fprintf(os.Stderr, "  toolhost -transport http -addr :8081     # Serve streamable HTTP\n")
		fmt.Fprintf(os.Stderr, "  toolhost -config toolhost.yaml\n")
	}

	flag.Parse()
	return flags
}

// apply overrides cfg with the flags that were set and revalidates it
func (f *Flags) apply(cfg *config.Config) error {
	if f.Transport != "" {
		cfg.Server.Transport = f.Transport
	}
	if f.HTTPAddr != "" {
		cfg.Server.HTTPAddr = f.HTTPAddr
	}
	if f.ResourceDir != "" {
		cfg.Resources.Dir = f.ResourceDir
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	return cfg.Validate()
}

// run wires the components together and serves until ctx is canceled or the
// client disconnects
func run(ctx context.Context, cfg *config.Config) error {
	logging.Configure(cfg.Logging.Dir, cfg.LogLevel())
	logger, logErr := logging.NewLogger("toolhost")
	defer logger.Close()
	if logErr != nil {
		logger.Warnf("continuing with stderr logging: %v", logErr)
	}
	logger.Infof("toolhost v%s starting (transport=%s)", version, cfg.Server.Transport)

	reader, err := resources.NewReader(cfg.Resources.Dir, logger.With("resources"))
	if err != nil {
		return fmt.Errorf("failed to create resource reader: %w", err)
	}

	runner, err := shell.NewRunner(cfg.ShellConfig(), logger.With("shell"))
	if err != nil {
		return fmt.Errorf("failed to create command runner: %w", err)
	}

	browserCfg := cfg.SessionConfig()
	sessions := browser.NewSessionManager(browserCfg, browser.NewPlaywrightDriver(browserCfg.InstallDriver), logger.With("browser"))
	defer func() {
		if shutdownErr := sessions.Shutdown(); shutdownErr != nil {
			logger.Warnf("browser shutdown: %v", shutdownErr)
		}
	}()

	reg, err := catalog.Build(catalog.Deps{
		Sessions:  sessions,
		Runner:    runner,
		Resources: reader,
	})
	if err != nil {
		return fmt.Errorf("failed to build operation registry: %w", err)
	}

	opts := cfg.ServerOptions()
	if opts.Version == config.DefaultServerVersion {
		opts.Version = version
	}
	srv, err := server.New(reg, opts, logger.With("server"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Infof("toolhost stopped")
	return nil
}
