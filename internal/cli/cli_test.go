package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-nvm"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

const sampleScript = `
busy_polls: 1
steps:
  - op: load
    data: "abcd"
  - op: write
    page: 3
  - op: read
    addr: 96
    count: 2
`

func TestInfo(t *testing.T) {
	out, _, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "eeprom size: 2048 bytes")
	assert.Contains(t, out, "0x35 EraseWriteEEPROMPage")
}

func TestRun(t *testing.T) {
	p := writeFile(t, "s.yaml", []byte(sampleScript))
	out, stderr, err := execute(t, "run", p)
	require.NoError(t, err)
	assert.Equal(t, "read 0x0060: AB CD\n", out)
	assert.Empty(t, stderr)
}

func TestRunVerboseTrace(t *testing.T) {
	p := writeFile(t, "s.yaml", []byte(sampleScript))
	out, stderr, err := execute(t, "run", "-v", "--trace", p)
	require.NoError(t, err)
	assert.Contains(t, stderr, "load page buffer: AB CD\n")
	assert.Contains(t, stderr, "atomic write page 3 @ 0x0060\n")
	assert.Contains(t, out, "W ADDR0 0x60\n")
	assert.Contains(t, out, "W CTRLA 0x01\n")
	assert.NotContains(t, out, "stores while busy")
}

func TestRunImageAndOut(t *testing.T) {
	img := bytes.Repeat([]byte{0x00}, 100)
	in := writeFile(t, "in.bin", img)
	p := writeFile(t, "s.yaml", []byte(sampleScript))
	outPath := filepath.Join(t.TempDir(), "out.bin")

	_, _, err := execute(t, "run", "--image", in, "-o", outPath, p)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Len(t, got, nvm.EEPROMSize)
	assert.Equal(t, []byte{0xAB, 0xCD, 0x00, 0x00}, got[96:100], "unloaded bytes keep the image")
	assert.Equal(t, byte(0xFF), got[100])
}

func TestRunDump(t *testing.T) {
	p := writeFile(t, "s.yaml", []byte("steps: [{op: erase}]"))
	out, _, err := execute(t, "run", "--dump", p)
	require.NoError(t, err)
	assert.Equal(t, nvm.EEPROMSize/16, strings.Count(out, "\n"))
}

func TestRunErrors(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	p := writeFile(t, "bad.yaml", []byte("steps: [{op: write, page: 99}]"))
	_, _, err = execute(t, "run", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page out of range")

	big := writeFile(t, "big.bin", make([]byte, nvm.EEPROMSize+1))
	ok := writeFile(t, "s.yaml", []byte(sampleScript))
	_, _, err = execute(t, "run", "--image", big, ok)
	require.Error(t, err)

	_, _, err = execute(t, "run")
	require.Error(t, err)
}
