// Package nvm defines high level interfaces, constants and types for driving
// the EEPROM of an AVR XMEGA microcontroller through its non-volatile memory
// (NVM) controller.
package nvm

import (
	"errors"
	"time"
)

const (
	// PageSize is the size of the EEPROM page buffer in bytes.
	PageSize = 32

	// EEPROMSize is the total size of the EEPROM in bytes.
	EEPROMSize = 2048

	// PageCount is the number of EEPROM pages. Valid page indexes are
	// [0, PageCount).
	PageCount = EEPROMSize / PageSize

	// AddressMask selects the meaningful bits of an EEPROM byte address.
	AddressMask = 0x1FFF
)

// Command is an NVM controller command opcode as written to the NVM.CMD
// register.
type Command uint8

// NVM commands used by the EEPROM driver.
const (
	CmdNoOperation          Command = 0x00
	CmdReadEEPROM           Command = 0x06
	CmdEraseEEPROM          Command = 0x30
	CmdLoadEEPROMBuffer     Command = 0x33
	CmdEraseWriteEEPROMPage Command = 0x35
)

func (c Command) String() string {
	switch c {
	case CmdNoOperation:
		return "NoOperation"
	case CmdReadEEPROM:
		return "ReadEEPROM"
	case CmdEraseEEPROM:
		return "EraseEEPROM"
	case CmdLoadEEPROMBuffer:
		return "LoadEEPROMBuffer"
	case CmdEraseWriteEEPROMPage:
		return "EraseWriteEEPROMPage"
	default:
		return "INVALID"
	}
}

// EEPROM provides an interface to write and erase the EEPROM through the NVM
// controller. The implementer drives the controller's registers directly and
// every operation blocks until the controller is ready to accept it.
//
// Callers must:
//
//   - Disable memory mapping of the EEPROM before calling any method.
//   - Never call methods concurrently, including from an interrupt handler
//     and the main context at the same time. Implementations do no locking.
//
// None of the methods report errors. A controller that never clears its busy
// flag hangs the caller.
type EEPROM interface {

	// WaitForReady blocks until the NVM controller is no longer busy.
	WaitForReady()

	// LoadPageBuffer loads data into the page buffer starting at offset 0. At
	// most PageSize bytes are loaded, the rest of data is silently ignored.
	// Only loaded positions of the buffer are later written to memory.
	LoadPageBuffer(data []byte)

	// AtomicWritePage erases and writes the page buffer to page. page must be
	// in [0, PageCount) and is not checked. Positions of the page buffer that
	// were not loaded leave the matching EEPROM bytes untouched. It returns
	// after the write has completed.
	AtomicWritePage(page uint8)

	// EraseAll erases the entire EEPROM to 0xFF. Unlike AtomicWritePage, it
	// returns as soon as the erase has started. The next operation waits for
	// it to complete.
	EraseAll()
}

// Waiter is an interface that wraps the method Wait.
type Waiter interface {
	// Wait blocks until busy returns false.
	Wait(busy func() bool)
}

// WaiterFunc is an adapter to allow the use of ordinary functions as Waiter.
type WaiterFunc func(busy func() bool)

// Wait implements Waiter interface.
func (f WaiterFunc) Wait(busy func() bool) {
	f(busy)
}

// Spin polls busy in a tight loop with no timeout. This is what the hardware
// expects on the microcontroller itself.
var Spin Waiter = WaiterFunc(func(busy func() bool) {
	for busy() {
	}
})

// SleepWaiter returns a Waiter which sleeps for d between polls. It is useful
// when the controller is reached over a slow host bus. There is still no
// timeout.
func SleepWaiter(d time.Duration) Waiter {
	return WaiterFunc(func(busy func() bool) {
		for busy() {
			time.Sleep(d)
		}
	})
}

// ErrBusy is returned when the NVM controller did not become ready in time.
var ErrBusy = errors.New("nvm: controller busy")
