// Package config loads toolhost settings from a YAML file, a .env file and
// TOOLHOST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/resources"
	"github.com/entrhq/toolhost/pkg/server"
	"github.com/entrhq/toolhost/pkg/tools/browser"
	"github.com/entrhq/toolhost/pkg/tools/shell"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "TOOLHOST_"

// Default server identity reported to clients
const (
	DefaultServerName    = "toolhost"
	DefaultServerVersion = "0.1.0"
)

// Config represents the full toolhost configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Resources ResourcesConfig `yaml:"resources" envPrefix:"RESOURCES_"`
	Command   CommandConfig   `yaml:"command" envPrefix:"COMMAND_"`
	Browser   BrowserConfig   `yaml:"browser" envPrefix:"BROWSER_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOGGING_"`
}

// ServerConfig defines the protocol endpoint
type ServerConfig struct {
	Name      string `yaml:"name" env:"NAME"`
	Version   string `yaml:"version" env:"VERSION"`
	Transport string `yaml:"transport" env:"TRANSPORT"` // stdio or http
	HTTPAddr  string `yaml:"http_addr" env:"HTTP_ADDR"`
}

// ResourcesConfig defines where static resources are read from
type ResourcesConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// CommandConfig defines how execute_command runs commands
type CommandConfig struct {
	Shell      string        `yaml:"shell" env:"SHELL"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"` // 0 disables the timeout
	WorkingDir string        `yaml:"working_dir" env:"WORKING_DIR"`
	Env        []string      `yaml:"env" env:"ENV" envSeparator:","`
	Deny       []string      `yaml:"deny" env:"DENY" envSeparator:","`
}

// BrowserConfig defines the shared browser session. Launch flags, viewport and
// user agent are fixed (browser.DefaultConfig) and not configurable.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" env:"HEADLESS"`
	InstallDriver     bool          `yaml:"install_driver" env:"INSTALL_DRIVER"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" env:"NAVIGATION_TIMEOUT"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Dir holds the log files; empty means ~/.toolhost/logs
	Dir string `yaml:"dir" env:"DIR"`

	// Level is one of debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	cmd := shell.DefaultConfig()
	b := browser.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Name:      DefaultServerName,
			Version:   DefaultServerVersion,
			Transport: string(server.TransportStdio),
			HTTPAddr:  server.DefaultHTTPAddr,
		},
		Resources: ResourcesConfig{
			Dir: resources.DefaultDir(),
		},
		Command: CommandConfig{
			Shell:   cmd.Shell,
			Timeout: cmd.Timeout,
		},
		Browser: BrowserConfig{
			Headless:          b.Headless,
			InstallDriver:     b.InstallDriver,
			NavigationTimeout: b.NavigationTimeout,
		},
		Logging: LoggingConfig{
			Level: logging.LevelInfo.String(),
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// path is not empty), then TOOLHOST_* environment variables, and validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch server.TransportKind(c.Server.Transport) {
	case server.TransportStdio, server.TransportHTTP:
	default:
		return fmt.Errorf("invalid transport: %s (must be 'stdio' or 'http')", c.Server.Transport)
	}
	if server.TransportKind(c.Server.Transport) == server.TransportHTTP && strings.TrimSpace(c.Server.HTTPAddr) == "" {
		return fmt.Errorf("http transport requires http_addr")
	}

	if c.Resources.Dir == "" {
		return fmt.Errorf("resources directory is required")
	}

	if c.Command.Timeout < 0 {
		return fmt.Errorf("command timeout cannot be negative")
	}
	for _, kv := range c.Command.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("invalid command env entry %q (must be KEY=VALUE)", kv)
		}
	}

	if c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("navigation timeout cannot be negative")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}

	return nil
}

// ServerOptions returns the options for server.New.
func (c *Config) ServerOptions() server.Options {
	return server.Options{
		Name:      c.Server.Name,
		Version:   c.Server.Version,
		Transport: server.TransportKind(c.Server.Transport),
		HTTPAddr:  c.Server.HTTPAddr,
	}
}

// ShellConfig returns the command runner configuration.
func (c *Config) ShellConfig() shell.Config {
	return shell.Config{
		Shell:      c.Command.Shell,
		Timeout:    c.Command.Timeout,
		WorkingDir: c.Command.WorkingDir,
		Env:        c.Command.Env,
		Deny:       c.Command.Deny,
	}
}

// SessionConfig returns the browser session configuration.
func (c *Config) SessionConfig() browser.Config {
	cfg := browser.DefaultConfig()
	cfg.Headless = c.Browser.Headless
	cfg.InstallDriver = c.Browser.InstallDriver
	cfg.NavigationTimeout = c.Browser.NavigationTimeout
	return cfg
}

// LogLevel returns the parsed logging level. Validate has already rejected
// unknown names.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}
