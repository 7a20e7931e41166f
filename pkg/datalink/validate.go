package datalink

import (
	"encoding/binary"
	"fmt"
)

// Response is a validated device->host frame.
type Response struct {
	Opcode    Opcode
	Address   uint32
	DataCount int
	// Payload aliases the received buffer and holds exactly DataCount bytes.
	Payload []byte
}

// Validate parses a frame received from the device. minSize is the smallest
// number of bytes the caller is prepared to accept; it is never less than a
// header-only frame.
//
// Direction and opcode are checked as soon as the header is present, so a
// rejected frame reports why the device refused before any framing or
// checksum problem.
func Validate(b []byte, minSize int) (Response, error) {
	if minSize < AckLen {
		minSize = AckLen
	}
	if len(b) < minSize {
		return Response{}, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(b), minSize)
	}

	if dir := Direction(b[0]); dir != DeviceToHost {
		return Response{}, fmt.Errorf("%w: %s", ErrUnexpectedDirection, dir)
	}
	if op := Opcode(b[2]); op != OpSuccess {
		return Response{}, fmt.Errorf("%w: %s", ErrDeviceError, op)
	}

	length := int(b[1])
	dataCount := int(b[7])
	if length > MaxPacketLen || dataCount > MaxDataLen {
		return Response{}, fmt.Errorf("%w: length %d, data count %d", ErrLengthOverflow, length, dataCount)
	}
	if len(b) < length+2 || len(b) < dataCount+AckLen {
		return Response{}, fmt.Errorf("%w: got %d bytes, length %d, data count %d", ErrTruncatedPayload, len(b), length, dataCount)
	}
	// The checksum only covers length bytes, so length must span the whole
	// payload.
	if length != HeaderLen-1+dataCount {
		return Response{}, fmt.Errorf("%w: length %d does not match data count %d", ErrLengthOverflow, length, dataCount)
	}

	if sum, want := Checksum(b[1:length+1]), b[length+1]; sum != want {
		return Response{}, fmt.Errorf("%w: computed 0x%02X, frame has 0x%02X", ErrChecksumMismatch, sum, want)
	}

	return Response{
		Opcode:    OpSuccess,
		Address:   binary.BigEndian.Uint32(b[3:7]),
		DataCount: dataCount,
		Payload:   b[HeaderLen : HeaderLen+dataCount],
	}, nil
}
