// Package nvmdriver defines interfaces and helper functions for implementing
// NVM controller drivers.
package nvmdriver

// Bus defines a minimum interface to the I/O space holding the NVM controller
// registers. A single driver implementation works across the real
// microcontroller (memory-mapped I/O) and simulated controllers used on host
// platforms.
//
// Addresses are absolute I/O addresses. Accesses to memory-mapped registers
// cannot fail, hence no error returns. Bus implementations need not be safe
// for concurrent use.
type Bus interface {

	// Load8 reads the 8-bit register at addr.
	Load8(addr uint16) uint8

	// Store8 writes v to the 8-bit register at addr.
	Store8(addr uint16, v uint8)
}

// BusFuncs is an adapter to allow the use of a pair of ordinary functions as
// Bus.
type BusFuncs struct {
	Load  func(addr uint16) uint8
	Store func(addr uint16, v uint8)
}

// Load8 implements Bus interface.
func (b BusFuncs) Load8(addr uint16) uint8 {
	return b.Load(addr)
}

// Store8 implements Bus interface.
func (b BusFuncs) Store8(addr uint16, v uint8) {
	b.Store(addr, v)
}

// Mask returns true if every bit of m is set in v.
func Mask(v, m uint8) bool {
	return v&m == m
}

// ProtectedStorer is implemented by buses that can write a register guarded
// by configuration change protection. The signature store and the register
// store must happen within a few CPU cycles of each other, which a pair of
// Store8 calls through an interface may not achieve on real hardware.
type ProtectedStorer interface {

	// StoreProtected writes sig to the protection register at ccp and then v
	// to the register at addr, back to back.
	StoreProtected(ccp uint16, sig uint8, addr uint16, v uint8)
}
