package datalink

import (
	"encoding/binary"
	"fmt"
)

// Frame is one message on the wire:
//
//	dir | length | opcode | address (BE) | dataCount | payload... | checksum
//
// length counts everything between dir and checksum. For read requests
// DataCount is the number of bytes asked for and Payload is empty; for every
// other frame DataCount equals len(Payload).
type Frame struct {
	Direction Direction
	Opcode    Opcode
	Address   uint32
	DataCount byte
	Payload   []byte
}

// NewReadRequest builds the header-only frame asking for count bytes at
// address. It has the same shape as a write acknowledgement.
func NewReadRequest(op Opcode, address uint32, count int) (Frame, error) {
	if count < 0 || count > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: read of %d bytes exceeds %d", ErrLengthOverflow, count, MaxDataLen)
	}
	return Frame{
		Direction: HostToDevice,
		Opcode:    op,
		Address:   address,
		DataCount: byte(count),
	}, nil
}

// NewWriteRequest builds a frame carrying data for address. It has the same
// shape as a read response.
func NewWriteRequest(op Opcode, address uint32, data []byte) (Frame, error) {
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: write of %d bytes exceeds %d", ErrLengthOverflow, len(data), MaxDataLen)
	}
	return Frame{
		Direction: HostToDevice,
		Opcode:    op,
		Address:   address,
		DataCount: byte(len(data)),
		Payload:   data,
	}, nil
}

// Len returns the value of the length field.
func (f Frame) Len() int {
	return HeaderLen - 1 + len(f.Payload)
}

// MarshalBinary lays the frame out for the wire and appends the checksum.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Payload) > MaxDataLen || int(f.DataCount) > MaxDataLen {
		return nil, fmt.Errorf("%w: data count %d, payload %d", ErrLengthOverflow, f.DataCount, len(f.Payload))
	}

	b := make([]byte, 0, f.Len()+2)
	b = append(b, byte(f.Direction), byte(f.Len()), byte(f.Opcode))
	b = binary.BigEndian.AppendUint32(b, f.Address)
	b = append(b, f.DataCount)
	b = append(b, f.Payload...)
	b = append(b, Checksum(b[1:]))
	return b, nil
}

// Build is shorthand for assembling and marshalling a frame in one go.
func Build(dir Direction, op Opcode, address uint32, dataCount byte, payload []byte) ([]byte, error) {
	return Frame{
		Direction: dir,
		Opcode:    op,
		Address:   address,
		DataCount: dataCount,
		Payload:   payload,
	}.MarshalBinary()
}

// Checksum is the additive checksum over b, modulo 256. Frames are summed
// from the length byte through the last payload byte.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}
