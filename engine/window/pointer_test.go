package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type gestures struct {
	drags  [][2]float32
	clicks [][2]float32
}

func newTrackedPointer() (*Pointer, *gestures) {
	g := &gestures{}
	p := NewPointer(0)
	p.onDrag = func(dx, dy float32) { g.drags = append(g.drags, [2]float32{dx, dy}) }
	p.onClick = func(x, y float32) { g.clicks = append(g.clicks, [2]float32{x, y}) }
	return p, g
}

func TestPointerClick(t *testing.T) {
	p, g := newTrackedPointer()
	p.Press(100, 100)
	p.Move(101, 102)
	p.Release(102, 101)
	assert.Empty(t, g.drags)
	assert.Equal(t, [][2]float32{{102, 101}}, g.clicks)
}

func TestPointerDragSuppressesClick(t *testing.T) {
	p, g := newTrackedPointer()
	p.Press(100, 100)
	p.Move(102, 100)
	assert.False(t, p.Dragging())
	p.Move(110, 100)
	assert.True(t, p.Dragging())
	p.Move(115, 97)
	p.Release(115, 97)

	assert.Equal(t, [][2]float32{{10, 0}, {5, -3}}, g.drags)
	assert.Empty(t, g.clicks)
	assert.False(t, p.Dragging())
}

func TestPointerIgnoresMovesWithoutPress(t *testing.T) {
	p, g := newTrackedPointer()
	p.Move(10, 10)
	p.Move(50, 50)
	p.Release(50, 50)
	assert.Empty(t, g.drags)
	assert.Empty(t, g.clicks)
}

func TestPointerNilCallbacks(t *testing.T) {
	p := NewPointer(1)
	assert.NotPanics(t, func() {
		p.Press(0, 0)
		p.Move(5, 5)
		p.Release(5, 5)
		p.Press(0, 0)
		p.Release(0, 0)
	})
}
