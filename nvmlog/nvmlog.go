// Package nvmlog implements a passthrough nvm.EEPROM which describes each
// operation on an io.Writer. It's mostly used for debugging purposes.
package nvmlog

import (
	"fmt"
	"io"

	"github.com/oxplot/go-nvm"
)

// Logger writes a line for each EEPROM operation and then passes the call
// through to its base.
type Logger struct {
	w    io.Writer
	sep  string
	base nvm.EEPROM
}

// NewLogger creates a new logger which will write to the given writer and
// optionally passes through the calls. If no base is provided, the calls are
// only logged. Line separator is written to the writer after each line of
// output. Some common values are "\n", "\r", "\r\n".
func NewLogger(w io.Writer, lineSep string, base nvm.EEPROM) *Logger {
	return &Logger{
		w:    w,
		sep:  lineSep,
		base: base,
	}
}

// WaitForReady logs and waits for the base to be ready.
func (l *Logger) WaitForReady() {
	fmt.Fprintf(l.w, "wait for ready%s", l.sep)
	if l.base != nil {
		l.base.WaitForReady()
	}
}

// LoadPageBuffer logs the data and loads it into the base page buffer.
func (l *Logger) LoadPageBuffer(data []byte) {
	n := len(data)
	if n > nvm.PageSize {
		fmt.Fprintf(l.w, "load page buffer: % X (%d bytes dropped)%s", data[:nvm.PageSize], n-nvm.PageSize, l.sep)
	} else {
		fmt.Fprintf(l.w, "load page buffer: % X%s", data, l.sep)
	}
	if l.base != nil {
		l.base.LoadPageBuffer(data)
	}
}

// AtomicWritePage logs the page and its address and writes it on the base.
func (l *Logger) AtomicWritePage(page uint8) {
	var warn string
	if page >= nvm.PageCount {
		warn = " (out of range!)"
	}
	fmt.Fprintf(l.w, "atomic write page %d @ 0x%04X%s%s", page, uint16(page)*nvm.PageSize, warn, l.sep)
	if l.base != nil {
		l.base.AtomicWritePage(page)
	}
}

// EraseAll logs and erases the base.
func (l *Logger) EraseAll() {
	fmt.Fprintf(l.w, "erase all%s", l.sep)
	if l.base != nil {
		l.base.EraseAll()
	}
}
