// Package term presents the machine in a terminal. Every character cell
// shows two vertically stacked pixels using the upper half block glyph.
package term

import (
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/kapitanov/chip8core/internal/host"
	"github.com/kapitanov/chip8core/internal/vm"
)

// Terminals report key presses only, so a key counts as held until no
// repeat arrived for holdTime.
const holdTime = 150 * time.Millisecond

const halfBlock = '▀'

var (
	bgColor = tcell.ColorBlack
	fgColor = tcell.NewHexColor(0xbea700)
)

type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	done   chan struct{}

	held map[vm.Key]time.Time
	now  func() time.Time
}

var _ host.HAL = (*Terminal)(nil)

func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	return newTerminal(screen)
}

func newTerminal(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to init terminal screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(bgColor))
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		events: make(chan tcell.Event, 64),
		done:   make(chan struct{}),
		held:   make(map[vm.Key]time.Time),
		now:    time.Now,
	}
	go t.poll()

	slog.Debug("term: screen ready")
	return t, nil
}

func (t *Terminal) poll() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

func (t *Terminal) Shutdown() {
	close(t.done)
	t.screen.Fini()
}

func (t *Terminal) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	now := t.now()

	for {
		select {
		case ev := <-t.events:
			if err := t.processEvent(ev, now, keyDown); err != nil {
				return err
			}
			continue
		default:
		}
		break
	}

	for key, at := range t.held {
		if now.Sub(at) >= holdTime {
			delete(t.held, key)
			keyUp(key)
		}
	}

	return nil
}

func (t *Terminal) processEvent(ev tcell.Event, now time.Time, keyDown func(vm.Key)) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			slog.Debug("term: exit requested")
			return host.ErrQuit

		case tcell.KeyBackspace, tcell.KeyBackspace2:
			slog.Debug("term: reboot requested")
			return host.ErrReboot

		case tcell.KeyRune:
			key, ok := keyMap(ev.Rune())
			if !ok {
				return nil
			}
			if _, down := t.held[key]; !down {
				keyDown(key)
			}
			t.held[key] = now
		}
	}

	return nil
}

// keyMap uses the same layout as the SDL frontend.
func keyMap(r rune) (vm.Key, bool) {
	switch unicode.ToLower(r) {
	case 'x':
		return vm.Key0, true
	case '1':
		return vm.Key1, true
	case '2':
		return vm.Key2, true
	case '3':
		return vm.Key3, true
	case 'q':
		return vm.Key4, true
	case 'w':
		return vm.Key5, true
	case 'e':
		return vm.Key6, true
	case 'a':
		return vm.Key7, true
	case 's':
		return vm.Key8, true
	case 'd':
		return vm.Key9, true
	case 'z':
		return vm.KeyA, true
	case 'c':
		return vm.KeyB, true
	case '4':
		return vm.KeyC, true
	case 'r':
		return vm.KeyD, true
	case 'f':
		return vm.KeyE, true
	case 'v':
		return vm.KeyF, true
	default:
		return 0, false
	}
}

func (t *Terminal) Draw(frame *vm.Frame) error {
	for row := 0; row < vm.ScreenHeight/2; row++ {
		for x := 0; x < vm.ScreenWidth; x++ {
			style := tcell.StyleDefault.
				Foreground(pixelColor(frame.At(x, 2*row))).
				Background(pixelColor(frame.At(x, 2*row+1)))
			t.screen.SetContent(x, row, halfBlock, nil, style)
		}
	}

	t.screen.Show()
	return nil
}

func pixelColor(lit bool) tcell.Color {
	if lit {
		return fgColor
	}
	return bgColor
}

func (t *Terminal) Beep() error {
	if err := t.screen.Beep(); err != nil {
		return fmt.Errorf("failed to ring terminal bell: %w", err)
	}
	return nil
}

func (t *Terminal) WaitForNextFrame() error {
	time.Sleep(time.Second / 60)
	return nil
}
