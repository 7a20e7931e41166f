package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seagrayinc/satlink/pkg/transport"
)

const (
	TransportSerial = "serial"
	TransportUSB    = "usb"

	DefaultFileName = ".satlink.toml"
)

type Config struct {
	// Transport is "serial" for a tty node or "usb" for raw libusb access.
	Transport    string   `toml:"transport"`
	Port         string   `toml:"port"`
	Baud         int      `toml:"baud"`
	DataBits     int      `toml:"data_bits"`
	StopBits     int      `toml:"stop_bits"`
	PollInterval Duration `toml:"poll_interval"`
	// Timeout bounds a whole transfer. Zero waits for the console forever.
	Timeout  Duration `toml:"timeout"`
	LogLevel string   `toml:"log_level"`
	Trace    bool     `toml:"trace"`
}

// Duration reads TOML strings such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Transport:    TransportSerial,
		Port:         "/dev/ttyUSB0",
		Baud:         transport.DefaultBaudRate,
		DataBits:     transport.DefaultDataBits,
		StopBits:     transport.DefaultStopBits,
		PollInterval: Duration{transport.DefaultPollInterval},
		LogLevel:     "info",
	}
}

// DefaultPath returns ~/.satlink.toml, or ./.satlink.toml without a home dir.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", slog.String("file", path), slog.String("key", key.String()))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	switch cfg.Transport {
	case TransportSerial:
		if strings.TrimSpace(cfg.Port) == "" {
			return fmt.Errorf("serial transport requires a port")
		}
	case TransportUSB:
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", cfg.Baud)
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return fmt.Errorf("data_bits must be 5-8, got %d", cfg.DataBits)
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return fmt.Errorf("stop_bits must be 1 or 2, got %d", cfg.StopBits)
	}
	if cfg.PollInterval.Duration < 0 || cfg.Timeout.Duration < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

func (c Config) SerialConfig() transport.SerialConfig {
	return transport.SerialConfig{
		Port:         c.Port,
		BaudRate:     c.Baud,
		DataBits:     c.DataBits,
		StopBits:     c.StopBits,
		PollInterval: c.PollInterval.Duration,
	}
}
