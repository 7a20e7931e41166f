package datalink

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/seagrayinc/satlink/pkg/transport"
)

// Session drives transfers over a single cable. The protocol is strictly
// request/response, so a Session must not be shared between goroutines and
// nothing else may use its Device while a transfer is running.
//
// No transfer is ever retried. Responses are awaited indefinitely unless ctx
// carries a deadline or is cancelled.
type Session struct {
	Device transport.Device

	// Trace, when set, sees every frame sent and every raw response received.
	Trace TraceFunc
	// Progress, when set, is called after each acknowledged packet.
	Progress func(done, total int)
}

func NewSession(dev transport.Device) *Session {
	return &Session{Device: dev}
}

func (s *Session) Close() error {
	return s.Device.Close()
}

// DumpRange reads n bytes of console memory starting at address. The device's
// echoed data count decides how far each response advances the cursor. On
// error no data is returned.
func (s *Session) DumpRange(ctx context.Context, address uint32, n int) ([]byte, error) {
	plan, err := PlanRead(address, n)
	if err != nil {
		return nil, err
	}
	slog.Debug("starting read",
		slog.String("address", fmt.Sprintf("0x%08X", address)),
		slog.Int("bytes", n),
		slog.Int("packets", len(plan)))

	out := make([]byte, n)
	buf := make([]byte, responseBufferLen)

	for done, packet := 0, 0; done < n; packet++ {
		remaining := n - done
		op, size := nextRead(done == 0, remaining)
		req, err := NewReadRequest(op, address+uint32(done), size)
		if err != nil {
			return nil, err
		}

		resp, _, err := s.exchange(ctx, req, buf, AckLen)
		if err != nil {
			return nil, fmt.Errorf("read packet %d (%s at 0x%08X): %w", packet, op, req.Address, err)
		}
		if resp.DataCount == 0 || resp.DataCount > remaining {
			return nil, fmt.Errorf("read packet %d (%s at 0x%08X): %w: device returned %d bytes, %d remaining",
				packet, op, req.Address, ErrUnexpectedResponsePayload, resp.DataCount, remaining)
		}

		copy(out[done:], resp.Payload)
		done += resp.DataCount

		slog.Debug("bytes remaining", slog.Int("remaining", n-done))
		s.progress(done, n)
	}

	return out, nil
}

// DumpBIOS reads the whole console BIOS.
func (s *Session) DumpBIOS(ctx context.Context) ([]byte, error) {
	b, err := s.DumpRange(ctx, BIOSAddress, BIOSSize)
	if err != nil {
		return nil, fmt.Errorf("bios: %w", err)
	}
	return b, nil
}

// WriteRange writes data to console memory at address.
func (s *Session) WriteRange(ctx context.Context, address uint32, data []byte) error {
	plan, err := PlanWrite(address, len(data))
	if err != nil {
		return err
	}
	return s.writePackets(ctx, plan, data)
}

// WriteAndExecute uploads data to address and has the console jump to it. It
// returns once the final packet is acknowledged, i.e. once the uploaded code
// has started; it does not wait for that code to finish.
func (s *Session) WriteAndExecute(ctx context.Context, address uint32, data []byte) error {
	plan, err := PlanWriteExecute(address, len(data))
	if err != nil {
		return err
	}
	return s.writePackets(ctx, plan, data)
}

func (s *Session) writePackets(ctx context.Context, plan []Packet, data []byte) error {
	slog.Debug("starting write", slog.Int("bytes", len(data)), slog.Int("packets", len(plan)))

	buf := make([]byte, responseBufferLen)
	var done int
	for i, p := range plan {
		req, err := NewWriteRequest(p.Opcode, p.Address, data[p.Offset:p.Offset+p.Size])
		if err != nil {
			return err
		}

		resp, n, err := s.exchange(ctx, req, buf, AckLen)
		if err != nil {
			return fmt.Errorf("write packet %d (%s at 0x%08X): %w", i, p.Opcode, p.Address, err)
		}
		if resp.DataCount != 0 {
			return fmt.Errorf("write packet %d (%s at 0x%08X): %w: ack carries %d data bytes",
				i, p.Opcode, p.Address, ErrUnexpectedResponsePayload, resp.DataCount)
		}
		// Anything after the ack means the device sent more than one reply.
		if n != AckLen {
			return fmt.Errorf("write packet %d (%s at 0x%08X): %w: %d bytes follow the ack",
				i, p.Opcode, p.Address, ErrUnexpectedResponsePayload, n-AckLen)
		}

		done += p.Size
		slog.Debug("bytes remaining", slog.Int("remaining", len(data)-done))
		s.progress(done, len(data))
	}

	return nil
}

// exchange sends one request and validates the single response read back
// into buf. It also returns how many bytes that read produced.
func (s *Session) exchange(ctx context.Context, req Frame, buf []byte, minSize int) (Response, int, error) {
	frame, err := req.MarshalBinary()
	if err != nil {
		return Response{}, 0, err
	}
	slog.Debug("sending frame", slog.String("frame", EncodeFrameToString(frame)))
	s.trace(HostToDevice, frame)

	if _, err := s.Device.Write(frame); err != nil {
		return Response{}, 0, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}

	n, err := s.receive(ctx, buf)
	if err != nil {
		return Response{}, 0, err
	}
	slog.Debug("received frame", slog.String("frame", EncodeFrameToString(buf[:n])))
	s.trace(DeviceToHost, buf[:n])

	resp, err := Validate(buf[:n], minSize)
	return resp, n, err
}

// receive polls the device until a read returns data. The whole response must
// arrive in that one read; nothing is reassembled.
func (s *Session) receive(ctx context.Context, buf []byte) (int, error) {
	for {
		n, err := s.Device.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrTransportFailure, err)
		}
		if n > 0 {
			return n, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("waiting for response: %w", err)
		}
		runtime.Gosched()
	}
}

func (s *Session) trace(dir Direction, frame []byte) {
	if s.Trace != nil {
		s.Trace(dir, frame)
	}
}

func (s *Session) progress(done, total int) {
	if s.Progress != nil {
		s.Progress(done, total)
	}
}
