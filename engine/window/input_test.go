package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragTracker(t *testing.T) {
	var d dragTracker

	_, _, ok := d.move(10, 10)
	assert.False(t, ok, "no button held")

	d.press(10, 10)
	dx, dy, ok := d.move(14, 7)
	assert.True(t, ok)
	assert.Equal(t, float32(4), dx)
	assert.Equal(t, float32(-3), dy)

	_, _, ok = d.move(14, 7)
	assert.False(t, ok, "no movement")

	d.release()
	_, _, ok = d.move(20, 20)
	assert.False(t, ok)
}

func TestDragTrackerTwoButtons(t *testing.T) {
	var d dragTracker
	d.press(0, 0)
	d.press(5, 5)
	dx, _, ok := d.move(2, 0)
	assert.True(t, ok)
	assert.Equal(t, float32(2), dx, "second press does not move the anchor")

	d.release()
	_, _, ok = d.move(3, 0)
	assert.True(t, ok, "still one button held")

	d.release()
	d.release()
	_, _, ok = d.move(4, 0)
	assert.False(t, ok)
}

func TestResizedForwardsChanges(t *testing.T) {
	w := &engineWindow{width: 100, height: 50}
	var calls [][2]int
	w.SetResizeCallback(func(width, height int) { calls = append(calls, [2]int{width, height}) })

	w.resized(100, 50)
	w.resized(0, 0)
	w.resized(200, 100)

	assert.Equal(t, [][2]int{{0, 0}, {200, 100}}, calls)
	assert.Equal(t, 200, w.Width())
	assert.Equal(t, 100, w.Height())
}

func TestDragCallback(t *testing.T) {
	w := &engineWindow{}
	var total [2]float32
	w.SetDragCallback(func(dx, dy float32) { total[0] += dx; total[1] += dy })

	w.cursorMoved(1, 1)
	w.buttonChanged(true, 1, 1)
	w.cursorMoved(4, 2)
	w.cursorMoved(6, 0)
	w.buttonChanged(false, 6, 0)
	w.cursorMoved(50, 50)

	assert.Equal(t, [2]float32{5, -1}, total)
}
