package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: " warning ", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriterLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("registry", &buf, LevelDebug)

	logger.Infof("dispatched %s in %dms", "echo", 3)

	line := buf.String()
	assert.Contains(t, line, "[registry] [INFO] dispatched echo in 3ms")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestWriterLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("shell", &buf, LevelWarn)

	logger.Debugf("hidden debug")
	logger.Infof("hidden info")
	logger.Warnf("shown warning")
	logger.Errorf("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warning")
	assert.Contains(t, out, "shown error")
}

func TestWith_SharesOutput(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger("server", &buf, LevelInfo)
	child := parent.With("browser")

	parent.Infof("one")
	child.Infof("two")

	out := buf.String()
	assert.Contains(t, out, "[server] [INFO] one")
	assert.Contains(t, out, "[browser] [INFO] two")
	assert.Equal(t, parent.SessionID(), child.SessionID())
}

func TestNilAndDiscardLoggers(t *testing.T) {
	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Infof("ignored") })

	d := Discard()
	assert.NotPanics(t, func() { d.Errorf("ignored") })
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestNewLogger_WritesToConfiguredDirectory(t *testing.T) {
	// initOnce makes the directory process-wide, so this is the only test that
	// exercises the file path.
	dir := t.TempDir()
	Configure(dir, LevelDebug)

	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	logger.Debugf("file entry")

	assert.True(t, strings.HasPrefix(logger.LogPath(), dir))
	assert.True(t, strings.HasSuffix(logger.LogPath(), "-toolhost.log"))
	assert.NotEmpty(t, logger.SessionID())
}
