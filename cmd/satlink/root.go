package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seagrayinc/satlink/internal/config"
	"github.com/seagrayinc/satlink/internal/ftdiusb"
	"github.com/seagrayinc/satlink/pkg/datalink"
	"github.com/seagrayinc/satlink/pkg/transport"
)

const version = "v0.10"

type app struct {
	cfgFile   string
	transport string
	port      string
	timeout   time.Duration
	logLevel  string
	trace     bool
	progress  bool

	cfg config.Config

	// openDevice is swapped out in tests.
	openDevice func(config.Config) (transport.Device, error)
}

func newApp() *app {
	return &app{openDevice: openDevice}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "satlink",
		Short: "Satlink " + version + " - read and write Saturn memory over a DataLink cable",
		Long: `Satlink talks to a Sega Saturn through a DataLink serial cable. It can dump
the BIOS or any memory range to a file, upload a file to memory, and upload
a file and jump to it.`,
		Example: `  satlink bios bios.bin
  satlink read 0x06004000 1024 ram.bin
  satlink write 0x06004000 input.bin
  satlink exec 0x06004000 sl.bin`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/"+config.DefaultFileName+")")
	flags.StringVar(&a.transport, "transport", "", `transport: "serial" or "usb"`)
	flags.StringVarP(&a.port, "port", "p", "", "serial port, or USB path for the usb transport")
	flags.DurationVar(&a.timeout, "timeout", 0, "give up on a transfer after this long (0 waits forever)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.trace, "trace", false, "dump every frame to stderr")
	flags.BoolVar(&a.progress, "progress", false, "show transfer progress on stderr")

	root.AddCommand(
		newBiosCmd(a),
		newReadCmd(a),
		newWriteCmd(a, false),
		newWriteCmd(a, true),
		newDevicesCmd(),
	)
	return root
}

// configure loads the config file and lets flags override it.
func (a *app) configure(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = a.transport
	}
	if flags.Changed("port") {
		cfg.Port = a.port
	}
	if flags.Changed("timeout") {
		cfg.Timeout.Duration = a.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("trace") {
		cfg.Trace = a.trace
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func openDevice(cfg config.Config) (transport.Device, error) {
	switch cfg.Transport {
	case config.TransportUSB:
		dev, err := ftdiusb.Open(cfg.Port)
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		dev, err := transport.OpenSerial(cfg.SerialConfig())
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

// withSession opens the cable, runs fn and closes the cable again.
func (a *app) withSession(cmd *cobra.Command, fn func(context.Context, *datalink.Session) error) error {
	dev, err := a.openDevice(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open DataLink device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Warn("failed to close device", slog.Any("error", err))
		}
	}()

	s := datalink.NewSession(dev)
	if a.cfg.Trace {
		s.Trace = datalink.WriterTrace(cmd.ErrOrStderr())
	}
	if a.progress {
		s.Progress = progressPrinter(cmd.ErrOrStderr())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout.Duration)
		defer cancel()
	}
	return fn(ctx, s)
}

func progressPrinter(w io.Writer) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\r%d/%d bytes", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

// parseAddress accepts hex addresses written with a 0x prefix.
func parseAddress(s string) (uint32, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("failed to convert %s into a valid address: want 0x prefixed hex", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to convert %s into a valid address: %w", s, err)
	}
	return uint32(v), nil
}

func writeOutput(path string, b []byte) error {
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
