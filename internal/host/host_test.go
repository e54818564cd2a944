package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/retroenv/retrogolib/assert"
)

type fakeHAL struct {
	frames  int // successful reads before ReadInput returns quitErr
	quitErr error
	keys    []vm.Key

	reads int
	draws []vm.Frame
	beeps int
	waits int
}

func (h *fakeHAL) ReadInput(keyDown func(vm.Key), _ func(vm.Key)) error {
	h.reads++
	if h.reads > h.frames {
		return h.quitErr
	}
	for _, k := range h.keys {
		keyDown(k)
	}
	return nil
}

func (h *fakeHAL) Draw(frame *vm.Frame) error {
	h.draws = append(h.draws, *frame)
	return nil
}

func (h *fakeHAL) Beep() error {
	h.beeps++
	return nil
}

func (h *fakeHAL) WaitForNextFrame() error {
	h.waits++
	return nil
}

func newRunner(t *testing.T, hal HAL, words ...uint16) *Runner {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := vm.New(vm.WithLogger(logger))

	program := make([]byte, 0, len(words)*2)
	for _, w := range words {
		program = append(program, byte(w>>8), byte(w))
	}
	assert.NoError(t, machine.Load(program))

	now := time.Unix(0, 0)
	return &Runner{
		VM:     machine,
		HAL:    hal,
		Logger: logger,
		Now: func() time.Time {
			now = now.Add(time.Second / 60)
			return now
		},
	}
}

func TestRun_Quit(t *testing.T) {
	hal := &fakeHAL{frames: 3, quitErr: ErrQuit}
	// add v0, 1; jmp 0x200
	r := newRunner(t, hal, 0x7001, 0x1200)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Equal(t, 3, hal.waits)

	// 10 instructions per frame at 600/s, half of them adds.
	assert.Equal(t, uint8(15), r.VM.Registers()[0])
}

func TestRun_Reboot(t *testing.T) {
	hal := &fakeHAL{frames: 1, quitErr: ErrReboot}
	r := newRunner(t, hal, 0x7001, 0x1200)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrReboot))
}

func TestRun_DrawsAndAcknowledges(t *testing.T) {
	hal := &fakeHAL{frames: 2, quitErr: ErrQuit}
	// font v0; sprite v0, v0, 5; mov v0, 0; jmp 0x204
	r := newRunner(t, hal, 0xF029, 0xD005, 0x6000, 0x1204)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Len(t, hal.draws, 1)
	assert.True(t, hal.draws[0].At(0, 0))
	assert.False(t, r.VM.Display().NeedsRedraw())
}

func TestRun_Beep(t *testing.T) {
	hal := &fakeHAL{frames: 4, quitErr: ErrQuit}
	// mov v0, 2; ssound v0; mov v1, 0; jmp 0x204
	r := newRunner(t, hal, 0x6002, 0xF018, 0x6100, 0x1204)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Equal(t, 1, hal.beeps)
}

func TestRun_KeysReachMachine(t *testing.T) {
	hal := &fakeHAL{frames: 2, quitErr: ErrQuit, keys: []vm.Key{vm.Key5}}
	// key v3; mov v1, 0; jmp 0x202
	r := newRunner(t, hal, 0xF30A, 0x6100, 0x1202)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Equal(t, uint8(5), r.VM.Registers()[3])
}

func TestRun_FaultWaitsForQuit(t *testing.T) {
	hal := &fakeHAL{frames: 5, quitErr: ErrQuit}
	r := newRunner(t, hal, 0x6001, 0xFFFF)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, vm.ErrInvalidInstruction))
	assert.True(t, hal.reads > 1)
	assert.True(t, r.VM.Halted() != nil)
}

func TestRun_SelfJumpFinishes(t *testing.T) {
	hal := &fakeHAL{frames: 10, quitErr: ErrQuit}
	r := newRunner(t, hal, 0x6001, 0x1202)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Equal(t, uint16(0x202), r.VM.PC())
}

func TestRun_ContextCancelled(t *testing.T) {
	hal := &fakeHAL{frames: 100, quitErr: ErrQuit}
	r := newRunner(t, hal, 0x7001, 0x1200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, hal.reads)
}

func TestRun_RebootPresentsBlankFrame(t *testing.T) {
	hal := &fakeHAL{frames: 1, quitErr: ErrReboot}
	// mvi 0x000; sprite v0, v0, 5; jmp self
	r := newRunner(t, hal, 0xA000, 0xD005, 0x1204)

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrReboot))
	assert.Len(t, hal.draws, 1)
	assert.True(t, hal.draws[0].At(0, 0))

	r.VM.Reset()

	// A still clock executes nothing, so only the reset shows.
	hal.frames = hal.reads + 1
	hal.quitErr = ErrQuit
	r.Now = func() time.Time { return time.Unix(0, 0) }

	err = r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Len(t, hal.draws, 2)
	assert.Equal(t, vm.Frame{}, hal.draws[1])
}
