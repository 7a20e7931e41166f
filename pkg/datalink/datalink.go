// Package datalink implements the Saturn DataLink memory-access protocol defined in
// http://www.gamingenterprisesinc.com/DataLink/DataLink_Protocol_V11.pdf

package datalink

import "fmt"

type Direction byte

// Direction flags
const (
	HostToDevice Direction = 0x5A // message is being sent to the console from the host
	DeviceToHost Direction = 0xA5 // message is being sent to the host from the console
)

func (d Direction) String() string {
	switch d {
	case HostToDevice:
		return "host->device"
	case DeviceToHost:
		return "device->host"
	default:
		return fmt.Sprintf("direction(0x%02X)", byte(d))
	}
}

type Opcode byte

// Message opcodes
const (
	OpReadStart Opcode = 0x01 // 1st packet of a read
	OpReadCont  Opcode = 0x11 // middle packet(s) of a read
	OpReadEnd   Opcode = 0x21 // last packet of a read

	OpWrite        Opcode = 0x09
	OpWriteExecute Opcode = 0x19 // write, then jump to the packet address

	OpSuccess Opcode = 0xFF
	OpError   Opcode = 0x00
)

func (o Opcode) String() string {
	switch o {
	case OpReadStart:
		return "ReadStart"
	case OpReadCont:
		return "ReadCont"
	case OpReadEnd:
		return "ReadEnd"
	case OpWrite:
		return "Write"
	case OpWriteExecute:
		return "WriteExecute"
	case OpSuccess:
		return "Success"
	case OpError:
		return "Error"
	default:
		return fmt.Sprintf("opcode(0x%02X)", byte(o))
	}
}

const (
	// MaxDataLen is the largest payload a single frame may carry.
	MaxDataLen = 191
	// MaxPacketLen is the largest value of the length field.
	MaxPacketLen = MaxDataLen + 7

	// HeaderLen counts direction, length, opcode, address and data count.
	HeaderLen = 8
	// AckLen is the size of a header-only frame including its checksum. Read
	// requests and write acknowledgements have this shape.
	AckLen = HeaderLen + 1
	// MaxFrameLen is the largest frame on the wire.
	MaxFrameLen = MaxPacketLen + 2

	// Every response is read into a buffer larger than any frame.
	responseBufferLen = 255
)

// The console BIOS is 512 KiB mapped at address 0.
const (
	BIOSSize    = 524288
	BIOSAddress = 0
)
