package vm

import "fmt"

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Valid reports whether k names one of the sixteen pad keys.
func (k Key) Valid() bool {
	return k <= KeyF
}

func (k Key) String() string {
	return fmt.Sprintf("%X", uint8(k))
}

// Pressed reports whether key is currently held.
func (vm *VM) Pressed(key Key) bool {
	return key.Valid() && vm.keypad[key]
}

// firstPressed returns the lowest held key.
func (vm *VM) firstPressed() (Key, bool) {
	for i, down := range vm.keypad {
		if down {
			return Key(i), true
		}
	}
	return 0, false
}
