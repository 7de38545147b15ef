package nvmlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxplot/go-nvm"
	"github.com/oxplot/go-nvm/nvmdriver/xmega"
	"github.com/oxplot/go-nvm/sim"
)

func TestLoggerWithoutBase(t *testing.T) {
	var b bytes.Buffer
	l := NewLogger(&b, "\r\n", nil)

	l.WaitForReady()
	l.LoadPageBuffer([]byte{0xAB, 0xCD})
	l.AtomicWritePage(3)
	l.AtomicWritePage(nvm.PageCount)
	l.EraseAll()

	assert.Equal(t, "wait for ready\r\n"+
		"load page buffer: AB CD\r\n"+
		"atomic write page 3 @ 0x0060\r\n"+
		"atomic write page 64 @ 0x0800 (out of range!)\r\n"+
		"erase all\r\n", b.String())
}

func TestLoggerReportsDroppedBytes(t *testing.T) {
	var b bytes.Buffer
	l := NewLogger(&b, "\n", nil)
	l.LoadPageBuffer(make([]byte, nvm.PageSize+3))
	assert.True(t, strings.HasSuffix(b.String(), "(3 bytes dropped)\n"), b.String())
}

func TestLoggerPassesThrough(t *testing.T) {
	var b bytes.Buffer
	dev := sim.New(1)
	l := NewLogger(&b, "\n", xmega.New(dev, nil))

	l.LoadPageBuffer([]byte{1, 2})
	l.AtomicWritePage(1)
	l.EraseAll()
	l.WaitForReady()

	assert.Equal(t, []nvm.Command{nvm.CmdEraseWriteEEPROMPage, nvm.CmdEraseEEPROM}, dev.Executed())
	assert.False(t, dev.Busy())
	assert.Equal(t, 4, strings.Count(b.String(), "\n"))
}
