package datalink

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// TraceFunc observes every frame the session sends or receives.
type TraceFunc func(dir Direction, frame []byte)

// EncodeFrameToString renders b as dash separated hex, e.g. 5a-07-01.
func EncodeFrameToString(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteString("-")
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// DumpFrame writes the frame ten bytes per line, including the direction and
// checksum bytes. A frame whose length field runs past the end of b is
// printed as far as it goes.
func DumpFrame(w io.Writer, frame []byte) error {
	n := len(frame)
	if n > 1 && int(frame[1])+2 < n {
		n = int(frame[1]) + 2
	}

	var builder strings.Builder
	builder.WriteString("Packet: ")
	for i := 0; i < n; i++ {
		if i%10 == 0 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "0x%02x ", frame[i])
	}
	builder.WriteString("\n")

	_, err := io.WriteString(w, builder.String())
	return err
}

// WriterTrace returns a TraceFunc that dumps every frame to w.
func WriterTrace(w io.Writer) TraceFunc {
	return func(dir Direction, frame []byte) {
		fmt.Fprintf(w, "%s ", dir)
		_ = DumpFrame(w, frame)
	}
}
