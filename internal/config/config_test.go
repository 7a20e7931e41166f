package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 375000, cfg.Baud)
	assert.Equal(t, 2, cfg.StopBits)
	assert.Zero(t, cfg.Timeout.Duration)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
transport = "usb"
port = ""
baud = 115200
poll_interval = "5ms"
timeout = "30s"
log_level = "debug"
trace = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportUSB, cfg.Transport)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 8, cfg.DataBits)
	assert.Equal(t, 5*time.Millisecond, cfg.PollInterval.Duration)
	assert.Equal(t, 30*time.Second, cfg.Timeout.Duration)
	assert.True(t, cfg.Trace)

	sc := cfg.SerialConfig()
	assert.Equal(t, 115200, sc.BaudRate)
	assert.Equal(t, 5*time.Millisecond, sc.PollInterval)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad transport", `transport = "bluetooth"`},
		{"serial without port", `port = " "`},
		{"stop bits", `stop_bits = 3`},
		{"data bits", `data_bits = 9`},
		{"log level", `log_level = "loud"`},
		{"duration", `timeout = "soon"`},
		{"syntax", `baud = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
