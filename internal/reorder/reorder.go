// Package reorder turns pointer-drag gestures into collection moves. The
// geometry side is a pure function of layout parameters and scroll offset so
// it can be exercised without a display.
package reorder

import (
	"math"

	"github.com/local/pagebinder/internal/collection"
)

// Layout describes how the shell lays out item tiles. Columns==1 is the
// vertical list layout; anything larger is a grid.
type Layout struct {
	Columns      int
	ItemWidth    float64
	ItemHeight   float64
	PadX         float64
	PadY         float64
	ScrollOffset float64 // vertical scroll, in the same units as pointer Y
}

// ItemCenter returns the on-screen center of item i.
func (l Layout) ItemCenter(i int) (x, y float64) {
	cols := l.Columns
	if cols < 1 {
		cols = 1
	}
	row := i / cols
	col := i % cols
	x = l.PadX + float64(col)*(l.ItemWidth+l.PadX) + l.ItemWidth/2
	y = l.PadY + float64(row)*(l.ItemHeight+l.PadY) + l.ItemHeight/2 - l.ScrollOffset
	return x, y
}

// NearestIndex resolves the item whose center is closest to the pointer.
// A list layout compares only the vertical axis; a grid compares both.
// A pointer beyond all items resolves to the last valid index.
// Returns -1 when count is 0.
func (l Layout) NearestIndex(px, py float64, count int) int {
	if count <= 0 {
		return -1
	}
	best := 0
	bestDist := math.MaxFloat64
	for i := 0; i < count; i++ {
		cx, cy := l.ItemCenter(i)
		var d float64
		if l.Columns <= 1 {
			d = math.Abs(py - cy)
		} else {
			d = math.Hypot(px-cx, py-cy)
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// DefaultThreshold is the pointer travel, in layout units, below which a
// press-move-release is still a plain click.
const DefaultThreshold = 10.0

// Outcome describes what a completed gesture did.
type Outcome int

const (
	// OutcomeNone: release without a preceding press, or an empty layout.
	OutcomeNone Outcome = iota
	// OutcomeClick: pointer never left the jitter threshold; plain selection.
	OutcomeClick
	// OutcomeMoved: a drag ended on a different index and the move was applied.
	OutcomeMoved
	// OutcomeDropSame: a drag ended where it started; nothing changed.
	OutcomeDropSame
)

// Engine holds transient per-gesture drag state. State is fully reset on
// release regardless of outcome.
type Engine struct {
	threshold float64

	pressed  bool
	dragging bool
	origin   int
	originX  float64
	originY  float64
}

// NewEngine creates a gesture engine. threshold <= 0 selects DefaultThreshold.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold}
}

// Dragging reports whether the current gesture has been recognized as a drag.
func (e *Engine) Dragging() bool { return e.dragging }

// Press starts a gesture on the item at index.
func (e *Engine) Press(index int, x, y float64) {
	e.pressed = true
	e.dragging = false
	e.origin = index
	e.originX = x
	e.originY = y
}

// Move updates the gesture with the current pointer position and returns the
// index the item would drop on, or -1 while still below the jitter threshold.
func (e *Engine) Move(x, y float64, layout Layout, count int) int {
	if !e.pressed {
		return -1
	}
	if !e.dragging {
		if math.Hypot(x-e.originX, y-e.originY) <= e.threshold {
			return -1
		}
		e.dragging = true
	}
	return layout.NearestIndex(x, y, count)
}

// Release completes the gesture against the collection and selection. A drag
// that resolves to a new index moves the item and remaps the selection; a
// non-drag release is a plain click that selects the origin.
func (e *Engine) Release(x, y float64, layout Layout, coll *collection.Collection, sel *collection.Selection) (Outcome, int) {
	defer e.reset()

	if !e.pressed {
		return OutcomeNone, -1
	}
	if !e.dragging {
		// the item may have been removed since the press
		if e.origin < 0 || e.origin >= coll.Len() {
			return OutcomeNone, -1
		}
		sel.Select(e.origin)
		return OutcomeClick, e.origin
	}

	target := layout.NearestIndex(x, y, coll.Len())
	if target < 0 || target == e.origin {
		return OutcomeDropSame, e.origin
	}
	if !coll.MoveTo(e.origin, target) {
		return OutcomeDropSame, e.origin
	}
	sel.ApplyMove(e.origin, target)
	return OutcomeMoved, target
}

func (e *Engine) reset() {
	e.pressed = false
	e.dragging = false
	e.origin = 0
	e.originX = 0
	e.originY = 0
}
