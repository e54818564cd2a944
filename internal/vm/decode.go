package vm

import "fmt"

// Op identifies a decoded operation.
type Op uint8

const (
	OpInvalid Op = iota
	OpCls        // 00E0
	OpRts        // 00EE
	OpJmp        // 1nnn
	OpJsr        // 2nnn
	OpSkeqImm    // 3xnn
	OpSkneImm    // 4xnn
	OpSkeqReg    // 5xy0
	OpMovImm     // 6xnn
	OpAddImm     // 7xnn
	OpMovReg     // 8xy0
	OpOr         // 8xy1
	OpAnd        // 8xy2
	OpXor        // 8xy3
	OpAddReg     // 8xy4
	OpSub        // 8xy5
	OpShr        // 8xy6
	OpRsb        // 8xy7
	OpShl        // 8xyE
	OpSkneReg    // 9xy0
	OpMvi        // Annn
	OpJmi        // Bnnn
	OpRand       // Cxnn
	OpSprite     // Dxyn
	OpSkpr       // Ex9E
	OpSkup       // ExA1
	OpGdelay     // Fx07
	OpKey        // Fx0A
	OpSdelay     // Fx15
	OpSsound     // Fx18
	OpAdi        // Fx1E
	OpFont       // Fx29
	OpBcd        // Fx33
	OpStr        // Fx55
	OpLdr        // Fx65

	opCount
)

// Instruction is a decoded instruction word. Every field is derived from
// Word by masking; which of them matter depends on Op.
type Instruction struct {
	Op   Op
	Word uint16

	X   uint8  // bits 8-11
	Y   uint8  // bits 4-7
	N   uint8  // bits 0-3
	NN  uint8  // bits 0-7
	NNN uint16 // bits 0-11
}

// Decode splits opcode into its fields and selects the operation. Words
// that match no operation decode to OpInvalid.
func Decode(opcode uint16) Instruction {
	in := Instruction{
		Word: opcode,
		X:    uint8((opcode & 0x0F00) >> 8),
		Y:    uint8((opcode & 0x00F0) >> 4),
		N:    uint8(opcode & 0x000F),
		NN:   uint8(opcode & 0x00FF),
		NNN:  opcode & 0x0FFF,
	}
	in.Op = decodeOp(opcode)
	return in
}

func decodeOp(opcode uint16) Op {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRts
		}

	case 0x1000:
		return OpJmp

	case 0x2000:
		return OpJsr

	case 0x3000:
		return OpSkeqImm

	case 0x4000:
		return OpSkneImm

	case 0x5000:
		if opcode&0x000F == 0 {
			return OpSkeqReg
		}

	case 0x6000:
		return OpMovImm

	case 0x7000:
		return OpAddImm

	case 0x8000:
		switch opcode & 0x000F {
		case 0x0000:
			return OpMovReg
		case 0x0001:
			return OpOr
		case 0x0002:
			return OpAnd
		case 0x0003:
			return OpXor
		case 0x0004:
			return OpAddReg
		case 0x0005:
			return OpSub
		case 0x0006:
			return OpShr
		case 0x0007:
			return OpRsb
		case 0x000E:
			return OpShl
		}

	case 0x9000:
		if opcode&0x000F == 0 {
			return OpSkneReg
		}

	case 0xA000:
		return OpMvi

	case 0xB000:
		return OpJmi

	case 0xC000:
		return OpRand

	case 0xD000:
		return OpSprite

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			return OpSkpr
		case 0x00A1:
			return OpSkup
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			return OpGdelay
		case 0x000A:
			return OpKey
		case 0x0015:
			return OpSdelay
		case 0x0018:
			return OpSsound
		case 0x001E:
			return OpAdi
		case 0x0029:
			return OpFont
		case 0x0033:
			return OpBcd
		case 0x0055:
			return OpStr
		case 0x0065:
			return OpLdr
		}
	}

	return OpInvalid
}

// String renders the instruction as a mnemonic.
func (in Instruction) String() string {
	switch in.Op {
	case OpCls:
		return "cls"
	case OpRts:
		return "rts"
	case OpJmp:
		return fmt.Sprintf("jmp 0x%04x", in.NNN)
	case OpJsr:
		return fmt.Sprintf("jsr 0x%04x", in.NNN)
	case OpSkeqImm:
		return fmt.Sprintf("skeq v%x, %d", in.X, in.NN)
	case OpSkneImm:
		return fmt.Sprintf("skne v%x, %d", in.X, in.NN)
	case OpSkeqReg:
		return fmt.Sprintf("skeq v%x, v%x", in.X, in.Y)
	case OpMovImm:
		return fmt.Sprintf("mov v%x, %d", in.X, in.NN)
	case OpAddImm:
		return fmt.Sprintf("add v%x, %d", in.X, in.NN)
	case OpMovReg:
		return fmt.Sprintf("mov v%x, v%x", in.X, in.Y)
	case OpOr:
		return fmt.Sprintf("or v%x, v%x", in.X, in.Y)
	case OpAnd:
		return fmt.Sprintf("and v%x, v%x", in.X, in.Y)
	case OpXor:
		return fmt.Sprintf("xor v%x, v%x", in.X, in.Y)
	case OpAddReg:
		return fmt.Sprintf("add v%x, v%x", in.X, in.Y)
	case OpSub:
		return fmt.Sprintf("sub v%x, v%x", in.X, in.Y)
	case OpShr:
		return fmt.Sprintf("shr v%x", in.X)
	case OpRsb:
		return fmt.Sprintf("rsb v%x, v%x", in.X, in.Y)
	case OpShl:
		return fmt.Sprintf("shl v%x", in.X)
	case OpSkneReg:
		return fmt.Sprintf("skne v%x, v%x", in.X, in.Y)
	case OpMvi:
		return fmt.Sprintf("mvi 0x%04x", in.NNN)
	case OpJmi:
		return fmt.Sprintf("jmi 0x%04x", in.NNN)
	case OpRand:
		return fmt.Sprintf("rand v%x, %d", in.X, in.NN)
	case OpSprite:
		return fmt.Sprintf("sprite v%x, v%x, %d", in.X, in.Y, in.N)
	case OpSkpr:
		return fmt.Sprintf("skpr v%x", in.X)
	case OpSkup:
		return fmt.Sprintf("skup v%x", in.X)
	case OpGdelay:
		return fmt.Sprintf("gdelay v%x", in.X)
	case OpKey:
		return fmt.Sprintf("key v%x", in.X)
	case OpSdelay:
		return fmt.Sprintf("sdelay v%x", in.X)
	case OpSsound:
		return fmt.Sprintf("ssound v%x", in.X)
	case OpAdi:
		return fmt.Sprintf("adi v%x", in.X)
	case OpFont:
		return fmt.Sprintf("font v%x", in.X)
	case OpBcd:
		return fmt.Sprintf("bcd v%x", in.X)
	case OpStr:
		return fmt.Sprintf("str v0-v%x", in.X)
	case OpLdr:
		return fmt.Sprintf("ldr v0-v%x", in.X)
	default:
		return fmt.Sprintf("unknown 0x%04X", in.Word)
	}
}
