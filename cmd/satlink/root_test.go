package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seagrayinc/satlink/internal/config"
	"github.com/seagrayinc/satlink/pkg/datalink"
	"github.com/seagrayinc/satlink/pkg/transport"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{in: "0x06004000", want: 0x06004000},
		{in: "0X0", want: 0},
		{in: "0xffffffff", want: 0xffffffff},
		{in: "06004000", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "0x100000000", wantErr: true},
		{in: "0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAddress(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// run executes the CLI against dev with no config file in play.
func run(t *testing.T, dev transport.Device, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.openDevice = func(config.Config) (transport.Device, error) { return dev, nil }

	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func response(t *testing.T, payload []byte) []byte {
	t.Helper()
	b, err := datalink.Build(datalink.DeviceToHost, datalink.OpSuccess, 0, byte(len(payload)), payload)
	require.NoError(t, err)
	return b
}

func TestReadCommand(t *testing.T) {
	dev := transport.NewMockDevice()
	dev.Emit(response(t, []byte{0xde, 0xad}))
	dev.Emit(response(t, []byte{0xbe, 0xef}))

	outFile := filepath.Join(t.TempDir(), "ram.bin")
	out, err := run(t, dev, "read", "0x06004000", "4", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully dumped memory")

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
	assert.Len(t, dev.Written(), 2)
}

func TestReadCommandRejectsSmallCount(t *testing.T) {
	dev := transport.NewMockDevice()
	outFile := filepath.Join(t.TempDir(), "ram.bin")

	_, err := run(t, dev, "read", "0x06004000", "3", outFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, datalink.ErrInvalidSize))
	assert.Empty(t, dev.Written())
	assert.NoFileExists(t, outFile)
}

func TestExecCommand(t *testing.T) {
	dev := transport.NewMockDevice()
	dev.Emit(response(t, nil))
	dev.Emit(response(t, nil))

	inFile := filepath.Join(t.TempDir(), "sl.bin")
	require.NoError(t, os.WriteFile(inFile, make([]byte, 300), 0o600))

	out, err := run(t, dev, "exec", "0x06004000", inFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Executing at 0x6004000")

	written := dev.Written()
	require.Len(t, written, 2)
	assert.Equal(t, byte(datalink.OpWrite), written[0][2])
	assert.Equal(t, byte(datalink.OpWriteExecute), written[1][2])
}

func TestWriteCommandDeviceError(t *testing.T) {
	dev := transport.NewMockDevice()
	bad, err := datalink.Build(datalink.DeviceToHost, datalink.OpError, 0, 0, nil)
	require.NoError(t, err)
	dev.Emit(bad)

	inFile := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(inFile, []byte{1, 2, 3}, 0o600))

	_, err = run(t, dev, "write", "0x06004000", inFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, datalink.ErrDeviceError))
}

func TestTraceFlag(t *testing.T) {
	dev := transport.NewMockDevice()
	dev.Emit(response(t, nil))

	inFile := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(inFile, []byte{1}, 0o600))

	out, err := run(t, dev, "--trace", "write", "0x06004000", inFile)
	require.NoError(t, err)
	assert.Contains(t, out, "host->device Packet:")
	assert.Contains(t, out, "device->host Packet:")
}
