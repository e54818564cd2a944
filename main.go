package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/host"
	"github.com/kapitanov/chip8core/internal/term"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/spf13/cobra"
)

type frontend interface {
	host.HAL
	Shutdown()
}

func main() {
	root := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "CHIP-8 virtual machine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if *verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
	}

	root.AddCommand(runCommand(), disasmCommand())

	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PATH_TO_ROM_FILE",
		Short: "Run emulator",
		Args:  cobra.ExactArgs(1),
	}

	rate := cmd.Flags().Int("rate", vm.DefaultRate, "instructions per second")
	frontendName := cmd.Flags().String("frontend", "sdl", "frontend to use: sdl or term")
	scale := cmd.Flags().Int("scale", hal.DefaultScale, "window pixels per screen pixel (sdl only)")
	loadStoreIncrement := cmd.Flags().Bool("load-store-increment", false, "advance I after Fx55 and Fx65")
	seed := cmd.Flags().Uint64("seed", 0, "seed for the random number generator")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		random := vm.RandomSource(vm.NewRandSource())
		if cmd.Flags().Changed("seed") {
			random = vm.NewSeededSource(*seed)
		}

		machine := vm.New(
			vm.WithRate(*rate),
			vm.WithRandom(random),
			vm.WithLogger(slog.Default()),
			vm.WithLoadStoreIncrement(*loadStoreIncrement),
		)
		if err = machine.Load(bs); err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}
		slog.Debug("rom loaded", "path", path, "size", len(bs))

		h, err := newFrontend(*frontendName, *scale)
		if err != nil {
			return fmt.Errorf("unable to initialize %s frontend: %w", *frontendName, err)
		}
		defer h.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return run(ctx, machine, h)
	}

	return cmd
}

func newFrontend(name string, scale int) (frontend, error) {
	switch name {
	case "sdl":
		return hal.New(scale)
	case "term":
		return term.New()
	default:
		return nil, fmt.Errorf("unknown frontend %q", name)
	}
}

func run(ctx context.Context, machine *vm.VM, h host.HAL) error {
	for {
		runner := &host.Runner{VM: machine, HAL: h, Logger: slog.Default()}
		err := runner.Run(ctx)

		switch {
		case errors.Is(err, host.ErrReboot):
			slog.Info("rebooting")
			machine.Reset()
			continue

		case errors.Is(err, host.ErrQuit), errors.Is(err, context.Canceled):
			return nil

		default:
			return err
		}
	}
}

func disasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Print the instructions of a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			bs, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("unable to load file %q: %w", path, err)
			}

			return disassemble(cmd.OutOrStdout(), bs)
		},
	}
}
