package window

// DefaultDragThreshold is the distance in screen units a pressed pointer must travel before the
// gesture counts as a drag instead of a click.
const DefaultDragThreshold = 4

// Pointer turns raw button and cursor events of the primary button into drags and clicks.
// A release that never crossed the drag threshold is a click.
type Pointer struct {
	threshold float32

	pressed  bool
	dragging bool
	startX   float32
	startY   float32
	lastX    float32
	lastY    float32

	onDrag  func(dx, dy float32)
	onClick func(x, y float32)
}

// NewPointer creates a Pointer.
//
// Parameters:
//   - threshold: the drag distance; values <= 0 select DefaultDragThreshold
//
// Returns:
//   - *Pointer: the tracker
func NewPointer(threshold float32) *Pointer {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &Pointer{threshold: threshold}
}

// Press starts a gesture at (x, y).
func (p *Pointer) Press(x, y float32) {
	p.pressed = true
	p.dragging = false
	p.startX, p.startY = x, y
	p.lastX, p.lastY = x, y
}

// Move reports the cursor at (x, y). While pressed it emits drag deltas once the threshold is
// crossed; the first drag delta covers the whole distance from the press.
func (p *Pointer) Move(x, y float32) {
	if !p.pressed {
		p.lastX, p.lastY = x, y
		return
	}
	if !p.dragging {
		dx, dy := x-p.startX, y-p.startY
		if dx*dx+dy*dy < p.threshold*p.threshold {
			return
		}
		p.dragging = true
	}
	dx, dy := x-p.lastX, y-p.lastY
	p.lastX, p.lastY = x, y
	if p.onDrag != nil && (dx != 0 || dy != 0) {
		p.onDrag(dx, dy)
	}
}

// Release ends the gesture at (x, y), emitting a click if it never became a drag.
func (p *Pointer) Release(x, y float32) {
	if !p.pressed {
		return
	}
	p.Move(x, y)
	wasDrag := p.dragging
	p.pressed, p.dragging = false, false
	if !wasDrag && p.onClick != nil {
		p.onClick(x, y)
	}
}

// Dragging reports whether the current gesture has become a drag.
func (p *Pointer) Dragging() bool {
	return p.dragging
}
