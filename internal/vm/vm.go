package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	FontStart       = uint16(0x000)
	ProgramStart    = uint16(0x200)
	MaxProgramSize  = MemorySize - int(ProgramStart)
	InstructionSize = 2

	DefaultRate = 600

	flagRegister = 0x0F
)

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack [StackSize]uint16 // Stack
	sp    uint16            // Stack pointer

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	display Display
	keypad  [KeyCount]bool

	program []byte
	fault   *Fault

	rate               int
	loadStoreIncrement bool
	random             RandomSource
	logger             *slog.Logger
}

// New creates a machine with the font seeded and PC at ProgramStart.
func New(opts ...Option) *VM {
	vm := &VM{
		rate:   DefaultRate,
		random: NewRandSource(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(vm)
	}

	vm.initialize()
	return vm
}

// Load writes program at ProgramStart. Programs larger than MaxProgramSize
// are rejected and leave the machine untouched.
func (vm *VM) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	vm.program = append([]byte(nil), program...)
	clear(vm.memory[ProgramStart:])
	copy(vm.memory[ProgramStart:], vm.program)

	vm.logger.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
	return nil
}

// Reset brings the machine back to its power-on state and reloads the last
// loaded program.
func (vm *VM) Reset() {
	vm.initialize()
	copy(vm.memory[ProgramStart:], vm.program)
	vm.logger.Debug("reset", "program", len(vm.program))
}

func (vm *VM) initialize() {
	vm.memory = [MemorySize]uint8{}
	vm.registers = [RegisterCount]uint8{}
	vm.stack = [StackSize]uint16{}
	vm.keypad = [KeyCount]bool{}
	vm.display.clear()

	vm.pc = ProgramStart
	vm.index = 0
	vm.sp = 0
	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.fault = nil

	copy(vm.memory[FontStart:], chip8Font)
}

// StepResult describes what happened during a Step or Cycle call.
type StepResult struct {
	Executed int  // Instructions executed
	Tone     bool // Sound timer expired during the tick
}

// Step executes round(elapsed * rate) instructions followed by exactly one
// timer tick. A fault stops the batch and skips the tick.
func (vm *VM) Step(elapsed time.Duration) (StepResult, error) {
	return vm.run(vm.batchSize(elapsed))
}

// Cycle executes a single instruction followed by one timer tick.
func (vm *VM) Cycle() (StepResult, error) {
	return vm.run(1)
}

func (vm *VM) batchSize(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(elapsed.Seconds() * float64(vm.rate)))
}

func (vm *VM) run(n int) (StepResult, error) {
	var result StepResult

	if vm.fault != nil {
		return result, vm.fault
	}

	for ; result.Executed < n; result.Executed++ {
		if err := vm.exec(); err != nil {
			return result, err
		}
	}

	result.Tone = vm.tick()
	return result, nil
}

func (vm *VM) exec() error {
	opcode, err := vm.fetchOpcode()
	if err != nil {
		return vm.halt(err)
	}

	if err := vm.executeOpcode(opcode); err != nil {
		return vm.halt(err)
	}

	return nil
}

func (vm *VM) halt(err error) error {
	var f *Fault
	if errors.As(err, &f) {
		vm.fault = f
		vm.logger.Debug("machine halted", "err", f)
	}
	return err
}

func (vm *VM) tick() bool {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer == 0 {
		return false
	}

	tone := vm.soundTimer == 1
	vm.soundTimer--
	if tone {
		vm.logger.Debug("tone edge")
	}
	return tone
}

func (vm *VM) fetchOpcode() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, &Fault{Kind: ErrMemoryFault, PC: vm.pc, Addr: int(vm.pc) + 1}
	}

	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]

	opcode := uint16(hi)<<8 | uint16(lo) // Op code is two bytes
	return opcode, nil
}

// KeyDown marks key as held. Keys outside 0-F are ignored.
func (vm *VM) KeyDown(key Key) {
	if !key.Valid() {
		return
	}
	vm.keypad[key] = true
}

// KeyUp marks key as released.
func (vm *VM) KeyUp(key Key) {
	if !key.Valid() {
		return
	}
	vm.keypad[key] = false
}

// Display returns the live frame buffer. Read it only between steps.
func (vm *VM) Display() *Display {
	return &vm.display
}

// Memory returns a copy of the whole address space.
func (vm *VM) Memory() [MemorySize]uint8 {
	return vm.memory
}

// Registers returns a copy of V0-VF.
func (vm *VM) Registers() [RegisterCount]uint8 {
	return vm.registers
}

func (vm *VM) PC() uint16 {
	return vm.pc
}

func (vm *VM) Index() uint16 {
	return vm.index
}

func (vm *VM) SP() uint16 {
	return vm.sp
}

// Timers returns the delay and sound timer values.
func (vm *VM) Timers() (delay, sound uint8) {
	return vm.delayTimer, vm.soundTimer
}

// Halted returns the fault that stopped the machine, or nil.
func (vm *VM) Halted() error {
	if vm.fault == nil {
		return nil
	}
	return vm.fault
}

// NextInstruction decodes the word at PC without executing it.
func (vm *VM) NextInstruction() Instruction {
	opcode, err := vm.fetchOpcode()
	if err != nil {
		return Instruction{Op: OpInvalid}
	}
	return Decode(opcode)
}
