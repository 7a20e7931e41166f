package datalink

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeFrameToString(t *testing.T) {
	got := EncodeFrameToString([]byte{0x5a, 0x07, 0x01})
	if got != "5a-07-01" {
		t.Fatalf("got %q", got)
	}
	if EncodeFrameToString(nil) != "" {
		t.Fatalf("expected empty string")
	}
}

func TestDumpFrame(t *testing.T) {
	frame := parseHexString("5a-09-09-06-00-40-00-02-de-ad-e5")
	// trailing garbage past the declared length is not printed
	frame = append(frame, 0x00, 0x00)

	var buf bytes.Buffer
	if err := DumpFrame(&buf, frame); err != nil {
		t.Fatalf("DumpFrame: %v", err)
	}

	want := "Packet: \n" +
		"0x5a 0x09 0x09 0x06 0x00 0x40 0x00 0x02 0xde 0xad \n" +
		"0xe5 \n"
	if buf.String() != want {
		t.Fatalf("got\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestWriterTrace(t *testing.T) {
	var buf bytes.Buffer
	WriterTrace(&buf)(HostToDevice, parseHexString("5a-07-01-06-00-40-00-02-50"))
	if !strings.HasPrefix(buf.String(), "host->device Packet: ") {
		t.Fatalf("got %q", buf.String())
	}
}
