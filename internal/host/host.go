// Package host drives a machine from a frontend: it feeds key events, steps
// the engine with the elapsed wall time, presents frames and forwards tone
// edges.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kapitanov/chip8core/internal/vm"
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// HAL is implemented by frontends.
type HAL interface {
	ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error
	Draw(frame *vm.Frame) error
	Beep() error
	WaitForNextFrame() error
}

type Runner struct {
	VM     *vm.VM
	HAL    HAL
	Logger *slog.Logger
	Now    func() time.Time // defaults to time.Now

	last time.Time
}

// Run executes the loaded program until the frontend asks to quit or
// reboot, ctx is cancelled, or the machine faults and the user quits.
func (r *Runner) Run(ctx context.Context) error {
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	r.last = r.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.runStep()
		if err == nil {
			continue
		}

		var fault *vm.Fault
		if errors.As(err, &fault) {
			r.Logger.Error("program halted", "err", err)
			return r.waitForReboot(ctx, fmt.Errorf("program halted: %w", err))
		}

		if errors.Is(err, errFinished) {
			r.Logger.Info("program looped")
			return r.waitForReboot(ctx, ErrQuit)
		}

		return err
	}
}

var errFinished = errors.New("program finished")

func (r *Runner) runStep() error {
	if err := r.HAL.ReadInput(r.VM.KeyDown, r.VM.KeyUp); err != nil {
		return err
	}

	now := r.Now()
	elapsed := now.Sub(r.last)
	r.last = now

	res, stepErr := r.VM.Step(elapsed)

	// Present whatever was drawn before a fault too.
	if err := r.present(); err != nil {
		return err
	}

	if stepErr != nil {
		return stepErr
	}

	if res.Tone {
		if err := r.HAL.Beep(); err != nil {
			return err
		}
	}

	if r.looped() {
		return errFinished
	}

	return r.HAL.WaitForNextFrame()
}

func (r *Runner) present() error {
	display := r.VM.Display()
	if !display.NeedsRedraw() {
		return nil
	}

	frame := display.Snapshot()
	if err := r.HAL.Draw(&frame); err != nil {
		return err
	}
	display.AckRedraw()
	return nil
}

// looped reports whether the machine sits on a jump to itself, which
// programs use to stop.
func (r *Runner) looped() bool {
	in := r.VM.NextInstruction()
	return in.Op == vm.OpJmp && in.NNN == r.VM.PC()
}

// waitForReboot idles until the frontend asks for a reboot or to quit.
// Quitting returns onQuit.
func (r *Runner) waitForReboot(ctx context.Context, onQuit error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.HAL.WaitForNextFrame(); err != nil {
			return err
		}

		err := r.HAL.ReadInput(func(_ vm.Key) {}, func(_ vm.Key) {})
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return onQuit
		default:
			return err
		}
	}
}
