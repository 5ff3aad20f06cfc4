package display

import (
	"errors"

	"github.com/jmylchreest/toastd/internal/config"
)

// ErrGeometryNotReady is returned when the work area has not been measured.
var ErrGeometryNotReady = errors.New("display geometry not ready")

// Geometry is the derived slot layout for the current work area and config.
type Geometry struct {
	TotalWidth  int   // Notification width plus padding
	TotalHeight int   // Notification height plus padding
	Anchor      Point // Bottom-right corner of the stack, inset by the offsets
	FirstSlot   Point // Top-left of slot 0
	MaxVisible  int
}

// ComputeGeometry derives slot geometry from the primary display's work area.
func ComputeGeometry(area WorkArea, d config.DisplayConfig) (Geometry, error) {
	if area.Width <= 0 || area.Height <= 0 {
		return Geometry{}, ErrGeometryNotReady
	}

	g := Geometry{
		TotalWidth:  d.Width + d.Padding,
		TotalHeight: d.Height + d.Padding,
	}
	if g.TotalHeight <= 0 || g.TotalWidth <= 0 {
		return Geometry{}, ErrGeometryNotReady
	}

	g.Anchor = Point{
		X: area.X + area.Width - d.OffsetX,
		Y: area.Y + area.Height - d.OffsetY,
	}
	g.FirstSlot = Point{
		X: g.Anchor.X - g.TotalWidth,
		Y: g.Anchor.Y - g.TotalHeight,
	}

	g.MaxVisible = min(area.Height/g.TotalHeight, config.MaxVisibleLimit)
	if d.MaxVisible > 0 {
		g.MaxVisible = min(g.MaxVisible, d.MaxVisible)
	}
	// A display too short for one toast still shows one, clipped.
	if g.MaxVisible < 1 {
		g.MaxVisible = 1
	}

	return g, nil
}

// SlotAllocator maps stack indexes to screen positions.
// Index 0 is the bottom slot; higher indexes stack upward.
type SlotAllocator struct {
	geometry Geometry
}

// NewSlotAllocator creates an allocator for the given geometry.
func NewSlotAllocator(g Geometry) *SlotAllocator {
	return &SlotAllocator{geometry: g}
}

// SetGeometry replaces the geometry after a config or work area change.
func (a *SlotAllocator) SetGeometry(g Geometry) {
	a.geometry = g
}

// Geometry returns the current geometry.
func (a *SlotAllocator) Geometry() Geometry {
	return a.geometry
}

// Capacity returns the maximum number of simultaneously visible toasts.
func (a *SlotAllocator) Capacity() int {
	return a.geometry.MaxVisible
}

// TargetPositionForIndex returns the top-left corner of slot i.
func (a *SlotAllocator) TargetPositionForIndex(i int) Point {
	g := a.geometry
	return Point{
		X: g.Anchor.X - g.TotalWidth,
		Y: g.Anchor.Y - g.TotalHeight*(i+1),
	}
}

// NextInsertPosition returns the slot directly above the topmost of
// activeCount toasts, or false when the stack is full.
func (a *SlotAllocator) NextInsertPosition(activeCount int) (Point, bool) {
	if activeCount < 0 || activeCount >= a.geometry.MaxVisible {
		return Point{}, false
	}
	return a.TargetPositionForIndex(activeCount), true
}
