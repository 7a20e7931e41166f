package transport

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Line settings the Saturn side of the cable expects: 375000 baud, 8N2.
const (
	DefaultBaudRate = 375000
	DefaultDataBits = 8
	DefaultStopBits = 2

	// DefaultPollInterval bounds a single Read so an idle line yields 0 bytes
	// instead of blocking inside the driver.
	DefaultPollInterval = time.Millisecond
)

type SerialConfig struct {
	Port         string
	BaudRate     int
	DataBits     int
	StopBits     int
	PollInterval time.Duration
}

// SerialDevice is a Device backed by a tty, normally the ftdi_sio driver's
// /dev/ttyUSBn node for the cable.
type SerialDevice struct {
	port serial.Port
	name string
}

// OpenSerial opens and configures the named port.
func OpenSerial(cfg SerialConfig) (*SerialDevice, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial: no port given")
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.DataBits == 0 {
		mode.DataBits = DefaultDataBits
	}
	switch cfg.StopBits {
	case 0, 2:
		mode.StopBits = serial.TwoStopBits
	case 1:
		mode.StopBits = serial.OneStopBit
	default:
		return nil, fmt.Errorf("serial: unsupported stop bits %d", cfg.StopBits)
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", cfg.Port, err)
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if err := port.SetReadTimeout(poll); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serial set read timeout: %w", err)
	}

	slog.Debug("serial port opened",
		slog.String("port", cfg.Port),
		slog.Int("baud", mode.BaudRate),
		slog.Int("data_bits", mode.DataBits),
		slog.Duration("poll", poll))

	return &SerialDevice{port: port, name: cfg.Port}, nil
}

func (d *SerialDevice) Write(p []byte) (int, error) {
	n, err := d.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write %s: %w", d.name, err)
	}
	return n, nil
}

// Read returns 0 bytes and a nil error when the poll interval elapses with an
// idle line.
func (d *SerialDevice) Read(p []byte) (int, error) {
	n, err := d.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("serial read %s: %w", d.name, err)
	}
	return n, nil
}

func (d *SerialDevice) Close() error {
	return d.port.Close()
}

// ListSerial enumerates serial ports, filling in USB descriptors where the OS
// reports them.
func ListSerial() ([]Info, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial enumerate: %w", err)
	}
	out := make([]Info, 0, len(ports))
	for _, p := range ports {
		info := Info{Path: p.Name, Product: p.Product, Serial: p.SerialNumber}
		if p.IsUSB {
			info.VendorID = parseUSBID(p.VID)
			info.ProductID = parseUSBID(p.PID)
		}
		out = append(out, info)
	}
	return out, nil
}

func parseUSBID(s string) uint16 {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}
