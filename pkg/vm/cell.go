package vm

import "fmt"

// A Cell is a one-element container holding the current value of a
// variable shared between a function and the closures nested in it.
// Slots in a frame's cell range hold cells made when the frame is
// created; slots in the free range alias cells of an enclosing frame.
// Sharing is by *Cell pointer: once a slot is bound to a cell the
// binding never changes, only the contents do.
type Cell struct {
	v Value
}

// NewCell returns an empty cell.
func NewCell() *Cell { return &Cell{} }

// Get returns the cell contents, or nil if the cell is empty.
func (c *Cell) Get() Value { return c.v }

// Set replaces the cell contents. The previous value, if any, is simply
// dropped.
func (c *Cell) Set(v Value) { c.v = v }

// Clear empties the cell; the variable it backs becomes undefined.
func (c *Cell) Clear() { c.v = nil }

// Cells live in the slot array, which is typed []Value, so *Cell
// implements Value. A cell must never escape to guest code; the
// dispatcher only loads and stores through it.
func (*Cell) Type() string { return "cell" }
func (c *Cell) String() string {
	if c.v == nil {
		return "<cell empty>"
	}
	return fmt.Sprintf("<cell %s>", c.v.String())
}
func (*Cell) Truth() bool { panic("cell escaped to guest code") }
