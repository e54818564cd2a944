package vm

import "log/slog"

type Option func(vm *VM)

// WithRate sets how many instructions Step executes per second of elapsed
// time. Non-positive values keep DefaultRate.
func WithRate(rate int) Option {
	return func(vm *VM) {
		if rate > 0 {
			vm.rate = rate
		}
	}
}

// WithRandom replaces the byte source used by the rand instruction.
func WithRandom(src RandomSource) Option {
	return func(vm *VM) {
		if src != nil {
			vm.random = src
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) {
		if logger != nil {
			vm.logger = logger
		}
	}
}

// WithLoadStoreIncrement makes Fx55 and Fx65 leave I pointing past the last
// transferred byte (I = I + X + 1), as the COSMAC VIP interpreter did.
func WithLoadStoreIncrement(enabled bool) Option {
	return func(vm *VM) {
		vm.loadStoreIncrement = enabled
	}
}
