// Package transport provides the byte channels a DataLink session talks over.
package transport

// Device represents an opened link to the DataLink cable.
//
// Read may return 0 bytes with a nil error when nothing has arrived yet.
// Implementations do no framing and apply no retries.
type Device interface {
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Close() error
}

// Info represents a candidate cable or port found on the host.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
	Serial       string
}

// From the FT232 datasheet; the DataLink cable ships with the stock FTDI IDs.
const (
	FTDIVendorID   uint16 = 0x0403
	FT232ProductID uint16 = 0x6001
)

// IsDataLink reports whether the descriptor matches the cable's USB IDs.
func (i Info) IsDataLink() bool {
	return i.VendorID == FTDIVendorID && i.ProductID == FT232ProductID
}
