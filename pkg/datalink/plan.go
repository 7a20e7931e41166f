package datalink

import "fmt"

// Packet describes one frame of a transfer. Offset and Size locate the
// packet's slice of the caller's buffer.
type Packet struct {
	Opcode  Opcode
	Address uint32
	Offset  int
	Size    int
}

func (p Packet) String() string {
	return fmt.Sprintf("%s@0x%08X[%d:%d]", p.Opcode, p.Address, p.Offset, p.Offset+p.Size)
}

// MinReadLen is the smallest read the device accepts: a read always needs a
// ReadStart and a ReadEnd packet.
const MinReadLen = 4

// nextRead decides the opcode and size of the next read packet given how many
// bytes are still wanted.
func nextRead(first bool, remaining int) (Opcode, int) {
	if first {
		if remaining <= MaxDataLen {
			// split in two even though it would fit in one
			return OpReadStart, remaining / 2
		}
		return OpReadStart, MaxDataLen
	}
	if remaining <= MaxDataLen {
		return OpReadEnd, remaining
	}
	return OpReadCont, MaxDataLen
}

// PlanRead returns the packets needed to read n bytes at address, assuming the
// device returns every byte it is asked for.
func PlanRead(address uint32, n int) ([]Packet, error) {
	if n < MinReadLen {
		return nil, fmt.Errorf("%w: read of %d bytes, need at least %d", ErrInvalidSize, n, MinReadLen)
	}

	var plan []Packet
	for offset := 0; offset < n; {
		op, size := nextRead(offset == 0, n-offset)
		plan = append(plan, Packet{
			Opcode:  op,
			Address: address + uint32(offset),
			Offset:  offset,
			Size:    size,
		})
		offset += size
	}
	return plan, nil
}

// PlanWrite splits n bytes at address into Write packets in forward order.
func PlanWrite(address uint32, n int) ([]Packet, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: write of %d bytes", ErrInvalidSize, n)
	}
	return planWrites(address, 0, n), nil
}

func planWrites(address uint32, offset, n int) []Packet {
	plan := make([]Packet, 0, (n+MaxDataLen-1)/MaxDataLen)
	for done := 0; done < n; {
		size := min(n-done, MaxDataLen)
		plan = append(plan, Packet{
			Opcode:  OpWrite,
			Address: address + uint32(done),
			Offset:  offset + done,
			Size:    size,
		})
		done += size
	}
	return plan
}

// PlanWriteExecute plans an upload that ends with the device jumping to
// address. Anything past the first MaxDataLen bytes is written first with
// plain Write packets; the head goes last in the single WriteExecute packet,
// whose acknowledgement means execution has started.
func PlanWriteExecute(address uint32, n int) ([]Packet, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: write of %d bytes", ErrInvalidSize, n)
	}
	if n <= MaxDataLen {
		return []Packet{{Opcode: OpWriteExecute, Address: address, Size: n}}, nil
	}

	plan := planWrites(address+MaxDataLen, MaxDataLen, n-MaxDataLen)
	return append(plan, Packet{
		Opcode:  OpWriteExecute,
		Address: address,
		Size:    MaxDataLen,
	}), nil
}
