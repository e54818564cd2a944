package main

import (
	"fmt"
	"io"

	"github.com/kapitanov/chip8core/internal/vm"
)

// disassemble prints one line per instruction word of program, addressed
// as if loaded at vm.ProgramStart. A trailing odd byte is printed raw.
func disassemble(w io.Writer, program []byte) error {
	if len(program) > vm.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes (max %d)", vm.ErrProgramTooLarge, len(program), vm.MaxProgramSize)
	}

	addr := int(vm.ProgramStart)
	for i := 0; i+1 < len(program); i += vm.InstructionSize {
		word := uint16(program[i])<<8 | uint16(program[i+1])
		if _, err := fmt.Fprintf(w, "0x%04x  %04X  %s\n", addr+i, word, vm.Decode(word)); err != nil {
			return err
		}
	}

	if len(program)%vm.InstructionSize != 0 {
		last := len(program) - 1
		if _, err := fmt.Fprintf(w, "0x%04x  %02X    .byte\n", addr+last, program[last]); err != nil {
			return err
		}
	}

	return nil
}
