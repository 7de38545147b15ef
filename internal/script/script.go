// Package script runs sequences of EEPROM operations described in YAML
// against an nvm.EEPROM.
package script

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oxplot/go-nvm"
)

// Operations understood in a script step.
const (
	OpWait  = "wait"
	OpLoad  = "load"
	OpWrite = "write"
	OpErase = "erase"
	OpRead  = "read"
)

var (
	ErrUnknownOp  = errors.New("unknown op")
	ErrBadData    = errors.New("data must be non-empty hex")
	ErrPageRange  = errors.New("page out of range")
	ErrAddrRange  = errors.New("address out of range")
	ErrNoReader   = errors.New("read needs a reader")
	ErrMissingArg = errors.New("missing argument")
)

// Step is a single operation. Which fields are used depends on Op.
type Step struct {
	Op    string `yaml:"op"`
	Data  string `yaml:"data,omitempty"`  // load: hex encoded bytes
	Page  *int   `yaml:"page,omitempty"`  // write
	Addr  int    `yaml:"addr,omitempty"`  // read
	Count int    `yaml:"count,omitempty"` // read, defaults to 1

	data []byte
}

// Script is a parsed and validated list of steps.
type Script struct {
	// BusyPolls is the number of status polls a simulated controller should
	// report busy after each write and erase.
	BusyPolls int    `yaml:"busy_polls"`
	Steps     []Step `yaml:"steps"`
}

// Reader is an interface that wraps the method ReadEEPROM.
type Reader interface {
	ReadEEPROM(addr uint16) uint8
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("script: %w", err)
	}
	if s.BusyPolls < 0 {
		return nil, errors.New("script: busy_polls must be >= 0")
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return nil, fmt.Errorf("script: step %d (%s): %w", i+1, s.Steps[i].Op, err)
		}
	}
	return &s, nil
}

func (st *Step) validate() error {
	switch st.Op {
	case OpWait, OpErase:
	case OpLoad:
		b, err := hex.DecodeString(st.Data)
		if err != nil || len(b) == 0 {
			return ErrBadData
		}
		st.data = b
	case OpWrite:
		if st.Page == nil {
			return fmt.Errorf("%w: page", ErrMissingArg)
		}
		if *st.Page < 0 || *st.Page >= nvm.PageCount {
			return fmt.Errorf("%w: %d", ErrPageRange, *st.Page)
		}
	case OpRead:
		if st.Count == 0 {
			st.Count = 1
		}
		if st.Addr < 0 || st.Addr >= nvm.EEPROMSize || st.Count < 0 || st.Count > nvm.EEPROMSize-st.Addr {
			return fmt.Errorf("%w: %d+%d", ErrAddrRange, st.Addr, st.Count)
		}
	default:
		return ErrUnknownOp
	}
	return nil
}

// Run executes the steps in order on e. Read steps use rd and print their
// result to out, one line per step.
func (s *Script) Run(e nvm.EEPROM, rd Reader, out io.Writer) error {
	for i, st := range s.Steps {
		switch st.Op {
		case OpWait:
			e.WaitForReady()
		case OpLoad:
			e.LoadPageBuffer(st.data)
		case OpWrite:
			e.AtomicWritePage(uint8(*st.Page))
		case OpErase:
			e.EraseAll()
		case OpRead:
			if rd == nil {
				return fmt.Errorf("script: step %d (%s): %w", i+1, st.Op, ErrNoReader)
			}
			b := make([]byte, st.Count)
			for j := range b {
				b[j] = rd.ReadEEPROM(uint16(st.Addr + j))
			}
			fmt.Fprintf(out, "read 0x%04X: % X\n", st.Addr, b)
		}
	}
	return nil
}
