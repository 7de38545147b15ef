//go:build tinygo && avr

package xmega

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the bus of the microcontroller the program runs on. I/O registers
// are mapped at the bottom of the data space, so register addresses are used
// as pointers directly.
type MMIO struct{}

func reg(addr uint16) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(uintptr(addr)))
}

// Load8 implements nvmdriver.Bus interface.
func (MMIO) Load8(addr uint16) uint8 {
	return reg(addr).Get()
}

// Store8 implements nvmdriver.Bus interface.
func (MMIO) Store8(addr uint16, v uint8) {
	reg(addr).Set(v)
}

// StoreProtected implements nvmdriver.ProtectedStorer interface.
func (MMIO) StoreProtected(ccp uint16, sig uint8, addr uint16, v uint8) {
	p, r := reg(ccp), reg(addr)
	p.Set(sig)
	r.Set(v)
}
