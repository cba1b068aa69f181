package window

// dragTracker turns button and cursor events into drag deltas.
type dragTracker struct {
	held    int
	x, y    float32
	started bool
}

func (d *dragTracker) press(x, y float32) {
	d.held++
	if d.held == 1 {
		d.x, d.y = x, y
		d.started = true
	}
}

func (d *dragTracker) release() {
	if d.held > 0 {
		d.held--
	}
	if d.held == 0 {
		d.started = false
	}
}

// move returns the movement since the previous event while a button is held.
func (d *dragTracker) move(x, y float32) (dx, dy float32, ok bool) {
	if !d.started {
		return 0, 0, false
	}
	dx, dy = x-d.x, y-d.y
	d.x, d.y = x, y
	return dx, dy, dx != 0 || dy != 0
}
