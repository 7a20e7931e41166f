package ftdiusb

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/karalabe/usb"

	"github.com/seagrayinc/satlink/pkg/transport"
)

const (
	// Full-speed FT232 bulk IN packets are 64 bytes and every one of them
	// starts with two modem status bytes, even when no data is pending.
	PacketSize  = 64
	StatusBytes = 2

	readPackets = 8
)

// Device is the DataLink cable driven directly over libusb, bypassing the
// kernel's serial driver. Line settings (375000 8N2) are not programmed here;
// karalabe/usb exposes no control transfers, so the adapter must already be
// configured.
type Device struct {
	dev usb.Device
	raw []byte
}

// List returns every raw USB device carrying the cable's vendor/product IDs.
func List() ([]transport.Info, error) {
	if !usb.Supported() {
		return nil, errors.New("usb: not supported on this platform")
	}
	infos, err := usb.EnumerateRaw(transport.FTDIVendorID, transport.FT232ProductID)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	out := make([]transport.Info, 0, len(infos))
	for _, i := range infos {
		out = append(out, transport.Info{
			Path:         i.Path,
			VendorID:     i.VendorID,
			ProductID:    i.ProductID,
			Product:      i.Product,
			Manufacturer: i.Manufacturer,
			Serial:       i.Serial,
		})
	}
	return out, nil
}

// Open finds the cable by VID/PID and opens it. An empty path selects the
// first match.
func Open(path string) (*Device, error) {
	infos, err := usb.EnumerateRaw(transport.FTDIVendorID, transport.FT232ProductID)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("DataLink cable not found (VID:0x%04X PID:0x%04X)", transport.FTDIVendorID, transport.FT232ProductID)
	}

	info := infos[0]
	if path != "" {
		found := false
		for _, i := range infos {
			if i.Path == path {
				info, found = i, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("DataLink cable not found at %s (%d other candidates)", path, len(infos))
		}
	}

	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	slog.Debug("usb device opened", slog.String("path", info.Path), slog.String("product", info.Product))

	return newDevice(dev), nil
}

func newDevice(dev usb.Device) *Device {
	return &Device{
		dev: dev,
		raw: make([]byte, PacketSize*readPackets),
	}
}

func (d *Device) Write(p []byte) (int, error) {
	n, err := d.dev.Write(p)
	if err != nil {
		return n, fmt.Errorf("usb write: %w", err)
	}
	return n, nil
}

// Read performs one bulk read, drops the per-packet status bytes and returns
// whatever payload arrived. A read carrying only status bytes returns 0.
// Payload that does not fit in p is discarded, never handed to a later Read.
func (d *Device) Read(p []byte) (int, error) {
	m, err := d.dev.Read(d.raw)
	if err != nil {
		return 0, fmt.Errorf("usb read: %w", err)
	}
	return copy(p, StripStatus(d.raw[:m], PacketSize)), nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}

// StripStatus removes the leading status bytes from every packetSize-byte
// packet in b.
func StripStatus(b []byte, packetSize int) []byte {
	out := make([]byte, 0, len(b))
	for start := 0; start < len(b); start += packetSize {
		end := start + packetSize
		if end > len(b) {
			end = len(b)
		}
		if end-start <= StatusBytes {
			continue
		}
		out = append(out, b[start+StatusBytes:end]...)
	}
	return out
}
