package vm

import (
	"context"
	"fmt"
	"log/slog"
)

type handler func(vm *VM, in Instruction) error

var handlers = [opCount]handler{
	OpInvalid: unknown,
	OpCls:     cls,
	OpRts:     rts,
	OpJmp:     jmp,
	OpJsr:     jsr,
	OpSkeqImm: skeqImm,
	OpSkneImm: skneImm,
	OpSkeqReg: skeqReg,
	OpMovImm:  movImm,
	OpAddImm:  addImm,
	OpMovReg:  movReg,
	OpOr:      or,
	OpAnd:     and,
	OpXor:     xor,
	OpAddReg:  addReg,
	OpSub:     sub,
	OpShr:     shr,
	OpRsb:     rsb,
	OpShl:     shl,
	OpSkneReg: skneReg,
	OpMvi:     mvi,
	OpJmi:     jmi,
	OpRand:    random,
	OpSprite:  sprite,
	OpSkpr:    skpr,
	OpSkup:    skup,
	OpGdelay:  gdelay,
	OpKey:     key,
	OpSdelay:  sdelay,
	OpSsound:  ssound,
	OpAdi:     adi,
	OpFont:    font,
	OpBcd:     bcd,
	OpStr:     str,
	OpLdr:     ldr,
}

func (vm *VM) executeOpcode(opcode uint16) error {
	in := Decode(opcode)

	if vm.logger.Enabled(context.Background(), slog.LevelDebug) {
		vm.logger.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.pc),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", in.String(),
		)
	}

	return handlers[in.Op](vm, in)
}

func (vm *VM) next() {
	vm.pc += InstructionSize
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += 2 * InstructionSize
	} else {
		vm.pc += InstructionSize
	}
}

func unknown(vm *VM, in Instruction) error {
	return vm.newFault(ErrInvalidInstruction, in.Word)
}

// 00E0	cls	Clear the screen
func cls(vm *VM, _ Instruction) error {
	vm.display.clear()
	vm.next()
	return nil
}

// 00EE	rts	return from subroutine call
func rts(vm *VM, in Instruction) error {
	if vm.sp == 0 {
		return vm.newFault(ErrStackUnderflow, in.Word)
	}

	vm.sp--
	vm.pc = vm.stack[vm.sp]
	return nil
}

// 1xxx	jmp xxx	jump to address xxx
func jmp(vm *VM, in Instruction) error {
	vm.pc = in.NNN
	return nil
}

// 2xxx	jsr xxx	jump to subroutine at address xxx
func jsr(vm *VM, in Instruction) error {
	if int(vm.sp) >= StackSize {
		return vm.newFault(ErrStackOverflow, in.Word)
	}

	vm.stack[vm.sp] = vm.pc + InstructionSize
	vm.sp++
	vm.pc = in.NNN
	return nil
}

// 3rxx	skeq vr,xx	skip if register r = constant
func skeqImm(vm *VM, in Instruction) error {
	vm.skipIf(vm.registers[in.X] == in.NN)
	return nil
}

// 4rxx	skne vr,xx	skip if register r <> constant
func skneImm(vm *VM, in Instruction) error {
	vm.skipIf(vm.registers[in.X] != in.NN)
	return nil
}

// 5ry0	skeq vr,vy	skip if register r = register y
func skeqReg(vm *VM, in Instruction) error {
	vm.skipIf(vm.registers[in.X] == vm.registers[in.Y])
	return nil
}

// 6rxx	mov vr,xx	move constant to register r
func movImm(vm *VM, in Instruction) error {
	vm.registers[in.X] = in.NN
	vm.next()
	return nil
}

// 7rxx	add vr,xx	add constant to register r	No carry generated
func addImm(vm *VM, in Instruction) error {
	vm.registers[in.X] += in.NN
	vm.next()
	return nil
}

// 8ry0	mov vr,vy	move register vy into vr
func movReg(vm *VM, in Instruction) error {
	vm.registers[in.X] = vm.registers[in.Y]
	vm.next()
	return nil
}

// 8ry1	or rx,ry	or register vy into register vx
func or(vm *VM, in Instruction) error {
	vm.registers[in.X] |= vm.registers[in.Y]
	vm.next()
	return nil
}

// 8ry2	and rx,ry	and register vy into register vx
func and(vm *VM, in Instruction) error {
	vm.registers[in.X] &= vm.registers[in.Y]
	vm.next()
	return nil
}

// 8ry3	xor rx,ry	exclusive or register ry into register rx
func xor(vm *VM, in Instruction) error {
	vm.registers[in.X] ^= vm.registers[in.Y]
	vm.next()
	return nil
}

// 8ry4	add vr,vy	add register vy to vr, carry in vf
func addReg(vm *VM, in Instruction) error {
	x := vm.registers[in.X]
	y := vm.registers[in.Y]
	sum := uint16(x) + uint16(y)

	// VF is written last so that x or y may themselves be VF.
	vm.registers[in.X] = uint8(sum)
	vm.registers[flagRegister] = uint8(sum >> 8)

	vm.next()
	return nil
}

// 8ry5	sub vr,vy	subtract register vy from vr, vf set to 0 if borrows
func sub(vm *VM, in Instruction) error {
	x := vm.registers[in.X]
	y := vm.registers[in.Y]

	vm.registers[in.X] = x - y
	vm.registers[flagRegister] = notBorrow(x, y)

	vm.next()
	return nil
}

// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
func shr(vm *VM, in Instruction) error {
	x := vm.registers[in.X]

	vm.registers[in.X] = x >> 1
	vm.registers[flagRegister] = x & 0x1

	vm.next()
	return nil
}

// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr, vf set to 0 if borrows
func rsb(vm *VM, in Instruction) error {
	x := vm.registers[in.X]
	y := vm.registers[in.Y]

	vm.registers[in.X] = y - x
	vm.registers[flagRegister] = notBorrow(y, x)

	vm.next()
	return nil
}

// 8r0e	shl vr	shift register vr left, bit 7 goes into register vf
func shl(vm *VM, in Instruction) error {
	x := vm.registers[in.X]

	vm.registers[in.X] = x << 1
	vm.registers[flagRegister] = x >> 7

	vm.next()
	return nil
}

func notBorrow(a, b uint8) uint8 {
	if a >= b {
		return 1
	}
	return 0
}

// 9ry0	skne vr,vy	skip if register r <> register y
func skneReg(vm *VM, in Instruction) error {
	vm.skipIf(vm.registers[in.X] != vm.registers[in.Y])
	return nil
}

// axxx	mvi xxx	load index register with constant xxx
func mvi(vm *VM, in Instruction) error {
	vm.index = in.NNN
	vm.next()
	return nil
}

// bxxx	jmi xxx	jump to address xxx+register v0
func jmi(vm *VM, in Instruction) error {
	vm.pc = in.NNN + uint16(vm.registers[0])
	return nil
}

// crxx	rand vr,xx	vr = random byte masked by xx
func random(vm *VM, in Instruction) error {
	vm.registers[in.X] = vm.random.NextByte() & in.NN
	vm.next()
	return nil
}

// drys	sprite rx,ry,s	draw sprite at screen location rx,ry height s
//
// Sprite rows are read from memory at the index register, 8 pixels per byte,
// MSB first. Drawing XORs and wraps around the screen edges. VF is set to 1
// if any lit pixel was cleared, otherwise 0.
func sprite(vm *VM, in Instruction) error {
	height := int(in.N)
	if height > 0 {
		if err := vm.checkRange(in.Word, vm.index, height); err != nil {
			return err
		}
	}

	xLocation := int(vm.registers[in.X])
	yLocation := int(vm.registers[in.Y])

	collision := uint8(0)
	for y := 0; y < height; y++ {
		row := vm.memory[int(vm.index)+y]

		const width = 8
		for x := 0; x < width; x++ {
			if row&(0x80>>x) == 0 {
				continue
			}

			if vm.display.flip(xLocation+x, yLocation+y) {
				collision = 1
			}
		}
	}

	vm.registers[flagRegister] = collision
	vm.display.redraw = true
	vm.next()
	return nil
}

// ek9e	skpr k	skip if key (register rk) pressed
func skpr(vm *VM, in Instruction) error {
	vm.skipIf(vm.Pressed(Key(vm.registers[in.X])))
	return nil
}

// eka1	skup k	skip if key (register rk) not pressed
func skup(vm *VM, in Instruction) error {
	vm.skipIf(!vm.Pressed(Key(vm.registers[in.X])))
	return nil
}

// fr07	gdelay vr	get delay timer into vr
func gdelay(vm *VM, in Instruction) error {
	vm.registers[in.X] = vm.delayTimer
	vm.next()
	return nil
}

// fr0a	key vr	wait for keypress, put key in register vr
//
// PC stays put until a key is held, so the instruction is retried on the
// next cycle instead of blocking the host.
func key(vm *VM, in Instruction) error {
	k, ok := vm.firstPressed()
	if !ok {
		return nil
	}

	vm.registers[in.X] = uint8(k)
	vm.next()
	return nil
}

// fr15	sdelay vr	set the delay timer to vr
func sdelay(vm *VM, in Instruction) error {
	vm.delayTimer = vm.registers[in.X]
	vm.next()
	return nil
}

// fr18	ssound vr	set the sound timer to vr
func ssound(vm *VM, in Instruction) error {
	vm.soundTimer = vm.registers[in.X]
	vm.next()
	return nil
}

// fr1e	adi vr	add register vr to the index register
func adi(vm *VM, in Instruction) error {
	vm.index += uint16(vm.registers[in.X])
	vm.next()
	return nil
}

// fr29	font vr	point I to the sprite for hexadecimal character in vr
func font(vm *VM, in Instruction) error {
	vm.index = FontStart + uint16(vm.registers[in.X])*glyphSize
	vm.next()
	return nil
}

// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2
func bcd(vm *VM, in Instruction) error {
	if err := vm.checkRange(in.Word, vm.index, 3); err != nil {
		return err
	}

	x := vm.registers[in.X]

	vm.memory[vm.index] = x / 100
	vm.memory[vm.index+1] = (x / 10) % 10
	vm.memory[vm.index+2] = x % 10
	vm.next()
	return nil
}

// fr55	str v0-vr	store registers v0-vr at location I onwards
func str(vm *VM, in Instruction) error {
	n := uint16(in.X) + 1
	if err := vm.checkRange(in.Word, vm.index, int(n)); err != nil {
		return err
	}

	copy(vm.memory[vm.index:vm.index+n], vm.registers[:n])

	if vm.loadStoreIncrement {
		vm.index += n
	}
	vm.next()
	return nil
}

// fr65	ldr v0-vr	load registers v0-vr from location I onwards
func ldr(vm *VM, in Instruction) error {
	n := uint16(in.X) + 1
	if err := vm.checkRange(in.Word, vm.index, int(n)); err != nil {
		return err
	}

	copy(vm.registers[:n], vm.memory[vm.index:vm.index+n])

	if vm.loadStoreIncrement {
		vm.index += n
	}
	vm.next()
	return nil
}
