// Package xmega implements the EEPROM driver for the NVM controller found in
// AVR XMEGA microcontrollers.
package xmega

import (
	"context"
	"fmt"

	"github.com/oxplot/go-nvm"
	"github.com/oxplot/go-nvm/nvmdriver"
)

// Controller drives the EEPROM through the XMEGA NVM controller. It is not
// safe for concurrent use.
type Controller struct {
	bus  nvmdriver.Bus
	wait nvm.Waiter

	// Defined once here so EraseAll does not allocate.
	blank [nvm.PageSize]byte
}

// New creates a new controller on the given bus. If w is nil, nvm.Spin is
// used to wait on the busy flag.
func New(bus nvmdriver.Bus, w nvm.Waiter) *Controller {
	if w == nil {
		w = nvm.Spin
	}
	c := &Controller{
		bus:  bus,
		wait: w,
	}
	for i := range c.blank {
		c.blank[i] = 0xFF
	}
	return c
}

func (c *Controller) busy() bool {
	return nvmdriver.Mask(c.bus.Load8(RegStatus), RegStatusNVMBusy)
}

// exec commits the command in NVM.CMD. CTRLA is protected by the
// configuration change protection, so the signature must be written to CCP
// right before it.
func (c *Controller) exec() {
	if ps, ok := c.bus.(nvmdriver.ProtectedStorer); ok {
		ps.StoreProtected(RegCCP, CCPIOReg, RegCtrlA, RegCtrlACmdEx)
		return
	}
	c.bus.Store8(RegCCP, CCPIOReg)
	c.bus.Store8(RegCtrlA, RegCtrlACmdEx)
}

func (c *Controller) setAddress(addr uint16) {
	c.bus.Store8(RegAddr0, uint8(addr&0xFF))
	c.bus.Store8(RegAddr1, uint8(addr>>8)&0x1F)
	c.bus.Store8(RegAddr2, 0x00)
}

// WaitForReady blocks until the NVM controller is no longer busy.
func (c *Controller) WaitForReady() {
	c.wait.Wait(c.busy)
}

// WaitReadyContext is like WaitForReady but gives up when ctx is done, in
// which case the returned error wraps both nvm.ErrBusy and ctx.Err(). Polling
// goes through the controller's Waiter.
func (c *Controller) WaitReadyContext(ctx context.Context) error {
	var err error
	c.wait.Wait(func() bool {
		if !c.busy() {
			return false
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", nvm.ErrBusy, ctx.Err())
			return false
		}
		return true
	})
	return err
}

// LoadPageBuffer loads up to nvm.PageSize bytes of data into the page buffer.
// Any further bytes are ignored.
//
// EEPROM memory mapping must be disabled for this to work.
func (c *Controller) LoadPageBuffer(data []byte) {
	if len(data) > nvm.PageSize {
		data = data[:nvm.PageSize]
	}

	c.WaitForReady()
	c.bus.Store8(RegCmd, uint8(nvm.CmdLoadEEPROMBuffer))

	// Only the lower bits of the address select the buffer position. ADDR0 is
	// set for each byte below.

	c.bus.Store8(RegAddr1, 0x00)
	c.bus.Store8(RegAddr2, 0x00)

	for i, d := range data {
		c.bus.Store8(RegAddr0, uint8(i))
		c.bus.Store8(RegData0, d)
	}
}

// AtomicWritePage erases the page and writes the page buffer to it, then
// waits for the write to complete. Only page buffer positions that were
// loaded are written, others keep their value. page is not checked and must
// be less than nvm.PageCount.
//
// EEPROM memory mapping must be disabled for this to work.
func (c *Controller) AtomicWritePage(page uint8) {
	c.WaitForReady()

	c.setAddress(uint16(page) * nvm.PageSize)
	c.bus.Store8(RegCmd, uint8(nvm.CmdEraseWriteEEPROMPage))
	c.exec()

	c.WaitForReady()
}

// EraseAll erases the whole EEPROM. It does not wait for the erase to
// complete.
//
// EEPROM memory mapping must be disabled for this to work.
func (c *Controller) EraseAll() {

	// The erase command only erases locations marked for update in the page
	// buffer, so load every location.

	c.LoadPageBuffer(c.blank[:])
	c.WaitForReady()

	c.bus.Store8(RegCmd, uint8(nvm.CmdEraseEEPROM))
	c.exec()
}

// WritePage loads data into the page buffer and writes it to page.
func (c *Controller) WritePage(page uint8, data []byte) {
	c.LoadPageBuffer(data)
	c.AtomicWritePage(page)
}

// ReadEEPROM reads the EEPROM byte at addr using the NVM read command. Bits of
// addr above nvm.AddressMask are ignored.
func (c *Controller) ReadEEPROM(addr uint16) uint8 {
	c.WaitForReady()
	c.setAddress(addr & nvm.AddressMask)
	c.bus.Store8(RegCmd, uint8(nvm.CmdReadEEPROM))
	c.exec()
	return c.bus.Load8(RegData0)
}

// MemoryMapped returns true if the EEPROM is mapped into data memory.
func (c *Controller) MemoryMapped() bool {
	return nvmdriver.Mask(c.bus.Load8(RegCtrlB), RegCtrlBEEMapEn)
}

// SetMemoryMapped enables or disables mapping of the EEPROM into data
// memory. Mapping must be disabled before any of the write operations.
func (c *Controller) SetMemoryMapped(on bool) {
	r := c.bus.Load8(RegCtrlB)
	if on {
		r |= RegCtrlBEEMapEn
	} else {
		r &^= RegCtrlBEEMapEn
	}
	c.bus.Store8(RegCtrlB, r)
}

// Register addresses and bits in the XMEGA I/O space.
const (
	RegCCP   = 0x0034
	CCPIOReg = 0xD8 // signature unlocking protected I/O registers

	RegNVMBase = 0x01C0

	RegAddr0 = RegNVMBase + 0x00
	RegAddr1 = RegNVMBase + 0x01
	RegAddr2 = RegNVMBase + 0x02
	RegData0 = RegNVMBase + 0x04
	RegData1 = RegNVMBase + 0x05
	RegData2 = RegNVMBase + 0x06
	RegCmd   = RegNVMBase + 0x0A

	RegCtrlA      = RegNVMBase + 0x0B
	RegCtrlACmdEx = 1 << 0

	RegCtrlB        = RegNVMBase + 0x0C
	RegCtrlBEEMapEn = 1 << 3

	RegStatus        = RegNVMBase + 0x0F
	RegStatusNVMBusy = 1 << 7
)
