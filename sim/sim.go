// Package sim provides a simulated XMEGA NVM controller with its EEPROM. It
// implements nvmdriver.Bus so drivers can be exercised on host platforms and
// their register accesses inspected.
package sim

import (
	"fmt"
	"strings"

	"github.com/oxplot/go-nvm"
	"github.com/oxplot/go-nvm/nvmdriver/xmega"
)

// Op is the kind of a register access.
type Op byte

const (
	OpLoad  Op = 'R'
	OpStore Op = 'W'
)

// Access is a single register access seen by the device.
type Access struct {
	Op    Op
	Addr  uint16
	Value uint8
	Busy  bool // controller was busy when the access happened
}

func (a Access) String() string {
	return fmt.Sprintf("%c %s 0x%02X", a.Op, RegName(a.Addr), a.Value)
}

// RegName returns the name of the register at addr.
func RegName(addr uint16) string {
	switch addr {
	case xmega.RegCCP:
		return "CCP"
	case xmega.RegAddr0:
		return "ADDR0"
	case xmega.RegAddr1:
		return "ADDR1"
	case xmega.RegAddr2:
		return "ADDR2"
	case xmega.RegData0:
		return "DATA0"
	case xmega.RegData1:
		return "DATA1"
	case xmega.RegData2:
		return "DATA2"
	case xmega.RegCmd:
		return "CMD"
	case xmega.RegCtrlA:
		return "CTRLA"
	case xmega.RegCtrlB:
		return "CTRLB"
	case xmega.RegStatus:
		return "STATUS"
	default:
		return fmt.Sprintf("0x%04X", addr)
	}
}

// Device is a simulated NVM controller. The busy flag stays set for a fixed
// number of STATUS reads after each write or erase, so timing is
// deterministic. Stores to controller registers while busy are recorded as
// violations and otherwise ignored.
//
// Device is not safe for concurrent use.
type Device struct {
	mem    [nvm.EEPROMSize]byte
	buf    [nvm.PageSize]byte
	loaded [nvm.PageSize]bool

	addr  [3]uint8
	data  [3]uint8
	cmd   uint8
	ctrlB uint8

	armed     bool // CCP signature written by the previous store
	busyPolls int
	busyLeft  int

	trace      []Access
	violations []Access
	executed   []nvm.Command
}

// New creates a device with an erased EEPROM. busyPolls is the number of
// STATUS reads reporting busy after each write or erase command.
func New(busyPolls int) *Device {
	d := &Device{busyPolls: busyPolls}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	d.clearBuffer()
	return d
}

// Load8 implements nvmdriver.Bus interface.
func (d *Device) Load8(addr uint16) uint8 {
	busy := d.busyLeft > 0
	var v uint8
	switch addr {
	case xmega.RegStatus:
		if busy {
			v = xmega.RegStatusNVMBusy
			d.busyLeft--
		}
	case xmega.RegAddr0, xmega.RegAddr1, xmega.RegAddr2:
		v = d.addr[addr-xmega.RegAddr0]
	case xmega.RegData0, xmega.RegData1, xmega.RegData2:
		v = d.data[addr-xmega.RegData0]
	case xmega.RegCmd:
		v = d.cmd
	case xmega.RegCtrlB:
		v = d.ctrlB
	}
	d.trace = append(d.trace, Access{Op: OpLoad, Addr: addr, Value: v, Busy: busy})
	return v
}

// Store8 implements nvmdriver.Bus interface.
func (d *Device) Store8(addr uint16, v uint8) {
	a := Access{Op: OpStore, Addr: addr, Value: v, Busy: d.busyLeft > 0}
	d.trace = append(d.trace, a)

	armed := d.armed
	d.armed = false

	if a.Busy && isControllerReg(addr) {
		d.violations = append(d.violations, a)
		return
	}

	switch addr {
	case xmega.RegCCP:
		d.armed = v == xmega.CCPIOReg
	case xmega.RegAddr0, xmega.RegAddr1, xmega.RegAddr2:
		d.addr[addr-xmega.RegAddr0] = v
	case xmega.RegData0:
		d.data[0] = v
		if nvm.Command(d.cmd) == nvm.CmdLoadEEPROMBuffer && d.ctrlB&xmega.RegCtrlBEEMapEn == 0 {
			i := d.addr[0] & (nvm.PageSize - 1)
			d.buf[i] = v
			d.loaded[i] = true
		}
	case xmega.RegData1, xmega.RegData2:
		d.data[addr-xmega.RegData0] = v
	case xmega.RegCmd:
		d.cmd = v
	case xmega.RegCtrlA:
		if armed && v&xmega.RegCtrlACmdEx != 0 {
			d.execute()
		}
	case xmega.RegCtrlB:
		d.ctrlB = v
	}
}

func isControllerReg(addr uint16) bool {
	return addr == xmega.RegCCP || (addr >= xmega.RegNVMBase && addr <= xmega.RegStatus)
}

func (d *Device) address() uint16 {
	return (uint16(d.addr[1])<<8 | uint16(d.addr[0])) & (nvm.EEPROMSize - 1)
}

func (d *Device) execute() {
	c := nvm.Command(d.cmd)
	d.executed = append(d.executed, c)
	switch c {
	case nvm.CmdReadEEPROM:
		d.data[0] = d.mem[d.address()]
	case nvm.CmdEraseWriteEEPROMPage:
		base := d.address() &^ (nvm.PageSize - 1)
		for i, ok := range d.loaded {
			if ok {
				d.mem[int(base)+i] = d.buf[i]
			}
		}
		d.clearBuffer()
		d.busyLeft = d.busyPolls
	case nvm.CmdEraseEEPROM:
		for p := 0; p < nvm.EEPROMSize; p += nvm.PageSize {
			for i, ok := range d.loaded {
				if ok {
					d.mem[p+i] = 0xFF
				}
			}
		}
		d.clearBuffer()
		d.busyLeft = d.busyPolls
	}
}

func (d *Device) clearBuffer() {
	for i := range d.buf {
		d.buf[i] = 0xFF
		d.loaded[i] = false
	}
}

// Busy returns true if the controller is busy, without counting as a STATUS
// read.
func (d *Device) Busy() bool {
	return d.busyLeft > 0
}

// SetBusy makes the busy flag read set for the next n STATUS reads.
func (d *Device) SetBusy(n int) {
	d.busyLeft = n
}

// Memory returns a copy of the EEPROM contents.
func (d *Device) Memory() []byte {
	m := make([]byte, len(d.mem))
	copy(m, d.mem[:])
	return m
}

// SetMemory copies image into the EEPROM starting at address 0. Bytes beyond
// nvm.EEPROMSize are ignored.
func (d *Device) SetMemory(image []byte) {
	copy(d.mem[:], image)
}

// PageBuffer returns the page buffer and which of its positions are loaded.
func (d *Device) PageBuffer() (buf [nvm.PageSize]byte, loaded [nvm.PageSize]bool) {
	return d.buf, d.loaded
}

// Trace returns all register accesses since creation or the last ResetTrace.
func (d *Device) Trace() []Access {
	return d.trace
}

// Violations returns the stores to controller registers which happened while
// the controller was busy.
func (d *Device) Violations() []Access {
	return d.violations
}

// Executed returns the commands executed so far, in order.
func (d *Device) Executed() []nvm.Command {
	return d.executed
}

// ResetTrace clears the recorded trace, violations and executed commands.
func (d *Device) ResetTrace() {
	d.trace = nil
	d.violations = nil
	d.executed = nil
}

// TraceString formats the trace with one access per line.
func (d *Device) TraceString() string {
	var b strings.Builder
	for _, a := range d.trace {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	return b.String()
}
