package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDisplay_SnapshotIsCopy(t *testing.T) {
	var d Display
	d.flip(3, 4)

	frame := d.Snapshot()
	assert.True(t, frame.At(3, 4))

	d.flip(3, 4)
	assert.False(t, d.At(3, 4))
	assert.True(t, frame.At(3, 4))
}

func TestDisplay_Redraw(t *testing.T) {
	var d Display
	assert.False(t, d.NeedsRedraw())

	d.clear()
	assert.True(t, d.NeedsRedraw())

	d.AckRedraw()
	assert.False(t, d.NeedsRedraw())
}

func TestScreenAddr_Wraps(t *testing.T) {
	tests := []struct {
		x, y     int
		expected int
	}{
		{0, 0, 0},
		{63, 0, 63},
		{64, 0, 0},
		{0, 32, 0},
		{-1, -1, ScreenWidth*ScreenHeight - 1},
		{70, 33, ScreenWidth + 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, screenAddr(tt.x, tt.y))
	}
}
