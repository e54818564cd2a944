package vm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrMemoryFault        = errors.New("memory fault")
	ErrProgramTooLarge    = errors.New("program too large")
)

// Fault is a fatal condition raised while executing an instruction. The
// machine state is left as it was before the failing instruction.
type Fault struct {
	Kind   error  // One of the Err* sentinels
	PC     uint16 // Address of the failing instruction
	Opcode uint16 // Raw instruction word
	Addr   int    // Offending address, memory faults only
}

func (f *Fault) Error() string {
	if errors.Is(f.Kind, ErrMemoryFault) {
		return fmt.Sprintf("%v at 0x%04x: opcode 0x%04X addressed 0x%04x", f.Kind, f.PC, f.Opcode, f.Addr)
	}
	return fmt.Sprintf("%v at 0x%04x: opcode 0x%04X", f.Kind, f.PC, f.Opcode)
}

func (f *Fault) Unwrap() error {
	return f.Kind
}

func (vm *VM) newFault(kind error, opcode uint16) *Fault {
	return &Fault{Kind: kind, PC: vm.pc, Opcode: opcode}
}

// checkRange fails with a memory fault unless [addr, addr+n) lies in memory.
func (vm *VM) checkRange(opcode uint16, addr uint16, n int) error {
	if end := int(addr) + n - 1; end >= MemorySize {
		f := vm.newFault(ErrMemoryFault, opcode)
		f.Addr = end
		return f
	}
	return nil
}
