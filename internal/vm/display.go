package vm

// Display is the 64x32 monochrome frame buffer. Cells hold 0 or 1 and are
// laid out row by row.
type Display struct {
	gfx    [ScreenWidth * ScreenHeight]uint8
	redraw bool
}

// Frame is a copy of the frame buffer handed to a renderer.
type Frame [ScreenWidth * ScreenHeight]uint8

// At reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (f *Frame) At(x, y int) bool {
	return f[screenAddr(x, y)] != 0
}

// At reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (d *Display) At(x, y int) bool {
	return d.gfx[screenAddr(x, y)] != 0
}

// NeedsRedraw reports whether the frame changed since the last AckRedraw.
func (d *Display) NeedsRedraw() bool {
	return d.redraw
}

// AckRedraw is called by the renderer once it consumed a frame.
func (d *Display) AckRedraw() {
	d.redraw = false
}

// Snapshot copies the frame buffer.
func (d *Display) Snapshot() Frame {
	return Frame(d.gfx)
}

// lit returns the number of pixels that are on.
func (d *Display) lit() int {
	n := 0
	for _, p := range d.gfx {
		n += int(p)
	}
	return n
}

func (d *Display) clear() {
	d.gfx = [ScreenWidth * ScreenHeight]uint8{}
	d.redraw = true
}

// flip XORs the pixel at (x, y) and reports whether it was lit before.
func (d *Display) flip(x, y int) bool {
	addr := screenAddr(x, y)
	collision := d.gfx[addr] != 0
	d.gfx[addr] ^= 1
	return collision
}

func screenAddr(x, y int) int {
	x %= ScreenWidth
	if x < 0 {
		x += ScreenWidth
	}
	y %= ScreenHeight
	if y < 0 {
		y += ScreenHeight
	}

	return ScreenWidth*y + x
}
