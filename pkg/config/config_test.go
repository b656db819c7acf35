package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/server"
	"github.com/entrhq/toolhost/pkg/tools/browser"
	"github.com/entrhq/toolhost/pkg/tools/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, shell.DefaultTimeout, cfg.Command.Timeout)
	assert.Equal(t, browser.DefaultConfig(), cfg.SessionConfig())
	assert.Equal(t, server.TransportStdio, cfg.ServerOptions().Transport)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerName, cfg.Server.Name)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "toolhost.yaml", `
server:
  transport: http
  http_addr: 127.0.0.1:9000
resources:
  dir: /srv/resources
command:
  timeout: 0s
  working_dir: /tmp
  env: [FOO=bar]
  deny: ["rm -rf *"]
browser:
  headless: false
  navigation_timeout: 10s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, server.Options{
		Name:      DefaultServerName,
		Version:   DefaultServerVersion,
		Transport: server.TransportHTTP,
		HTTPAddr:  "127.0.0.1:9000",
	}, cfg.ServerOptions())
	assert.Equal(t, "/srv/resources", cfg.Resources.Dir)

	sh := cfg.ShellConfig()
	assert.Equal(t, time.Duration(0), sh.Timeout)
	assert.Equal(t, shell.DefaultShell, sh.Shell)
	assert.Equal(t, "/tmp", sh.WorkingDir)
	assert.Equal(t, []string{"FOO=bar"}, sh.Env)
	assert.Equal(t, []string{"rm -rf *"}, sh.Deny)

	b := cfg.SessionConfig()
	assert.False(t, b.Headless)
	assert.True(t, b.InstallDriver)
	assert.Equal(t, browser.Viewport{Width: browser.DefaultViewportWidth, Height: browser.DefaultViewportHeight}, b.Viewport)
	assert.Equal(t, browser.DefaultUserAgent, b.UserAgent)
	assert.Equal(t, 10*time.Second, b.NavigationTimeout)
	assert.Equal(t, browser.DefaultArgs, b.Args)

	assert.Equal(t, logging.LevelDebug, cfg.LogLevel())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "toolhost.yaml", "command:\n  timeout: 5s\nlogging:\n  level: warn\n")

	t.Setenv("TOOLHOST_COMMAND_TIMEOUT", "2m")
	t.Setenv("TOOLHOST_COMMAND_DENY", "shutdown*,reboot*")
	t.Setenv("TOOLHOST_SERVER_NAME", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Command.Timeout)
	assert.Equal(t, []string{"shutdown*", "reboot*"}, cfg.Command.Deny)
	assert.Equal(t, "from-env", cfg.Server.Name)
	assert.Equal(t, logging.LevelWarn, cfg.LogLevel())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "server:\n  port: 80\n"},
		{"malformed yaml", "server: [\n"},
		{"bad transport", "server:\n  transport: websocket\n"},
		{"negative timeout", "command:\n  timeout: -1s\n"},
		{"bad env entry", "command:\n  env: [FOO]\n"},
		{"fixed launch flags", "browser:\n  args: [--headless]\n"},
		{"fixed viewport", "browser:\n  viewport_width: 1280\n"},
		{"negative navigation timeout", "browser:\n  navigation_timeout: -1s\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "toolhost.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("TOOLHOST_BROWSER_HEADLESS", "maybe")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TOOLHOST_DOTENV_TEST_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-dotenv\n")
	missing := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, LoadDotEnv(missing, path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	const key = "TOOLHOST_DOTENV_TEST_KEEP"
	t.Setenv(key, "original")

	require.NoError(t, LoadDotEnv(writeFile(t, ".env", key+"=replaced\n")))
	assert.Equal(t, "original", os.Getenv(key))
}
