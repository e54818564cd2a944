package term

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kapitanov/chip8core/internal/host"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/retroenv/retrogolib/assert"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen, *time.Time) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := newTerminal(screen)
	assert.NoError(t, err)
	t.Cleanup(term.Shutdown)

	now := time.Unix(0, 0)
	term.now = func() time.Time { return now }
	return term, screen, &now
}

type keyLog struct {
	down []vm.Key
	up   []vm.Key
}

func (l *keyLog) keyDown(k vm.Key) { l.down = append(l.down, k) }
func (l *keyLog) keyUp(k vm.Key) { l.up = append(l.up, k) }

func TestKeyMap(t *testing.T) {
	tests := []struct {
		r        rune
		expected vm.Key
	}{
		{'x', vm.Key0},
		{'1', vm.Key1},
		{'4', vm.KeyC},
		{'q', vm.Key4},
		{'Q', vm.Key4},
		{'f', vm.KeyE},
		{'v', vm.KeyF},
	}

	for _, tt := range tests {
		key, ok := keyMap(tt.r)
		assert.True(t, ok)
		assert.Equal(t, tt.expected, key)
	}

	_, ok := keyMap('p')
	assert.False(t, ok)
}

func TestReadInput_HoldAndRelease(t *testing.T) {
	term, _, now := newTestTerminal(t)
	var log keyLog

	term.events <- tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone)
	assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	assert.Equal(t, []vm.Key{vm.Key5}, log.down)
	assert.Len(t, log.up, 0)

	// A repeat while held does not press again.
	*now = now.Add(100 * time.Millisecond)
	term.events <- tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone)
	assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	assert.Len(t, log.down, 1)
	assert.Len(t, log.up, 0)

	*now = now.Add(holdTime)
	assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	assert.Equal(t, []vm.Key{vm.Key5}, log.up)
}

func TestReadInput_Control(t *testing.T) {
	tests := []struct {
		name     string
		key      tcell.Key
		expected error
	}{
		{"escape", tcell.KeyEscape, host.ErrQuit},
		{"ctrl-c", tcell.KeyCtrlC, host.ErrQuit},
		{"backspace", tcell.KeyBackspace2, host.ErrReboot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, _, _ := newTestTerminal(t)
			var log keyLog

			term.events <- tcell.NewEventKey(tt.key, 0, tcell.ModNone)
			err := term.ReadInput(log.keyDown, log.keyUp)
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestDraw(t *testing.T) {
	term, screen, _ := newTestTerminal(t)

	var frame vm.Frame
	frame[0] = 1                  // (0, 0)
	frame[vm.ScreenWidth+1] = 1   // (1, 1)
	frame[3*vm.ScreenWidth+2] = 1 // (2, 3)
	assert.NoError(t, term.Draw(&frame))

	cells, width, _ := screen.GetContents()
	cell := func(x, y int) tcell.SimCell { return cells[y*width+x] }

	tests := []struct {
		x, y   int
		fg, bg tcell.Color
	}{
		{0, 0, fgColor, bgColor},
		{1, 0, bgColor, fgColor},
		{2, 0, bgColor, bgColor},
		{2, 1, bgColor, fgColor},
	}

	for _, tt := range tests {
		c := cell(tt.x, tt.y)
		assert.Equal(t, []rune{halfBlock}, c.Runes)

		fg, bg, _ := c.Style.Decompose()
		assert.Equal(t, tt.fg, fg)
		assert.Equal(t, tt.bg, bg)
	}
}
