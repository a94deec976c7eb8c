package locals

import "fmt"

// Exactly two error kinds cover every failure of this package, and
// they are never conflated: a RangeError means the caller passed an
// index outside the operation's range, an UndefinedVarError means a
// read found no value.

// RangeError reports an index outside the range an operation accepts.
// It is always produced before any frame storage is touched, so a
// failed operation leaves the frame exactly as it was.
type RangeError struct {
	Op    string // "fast" or "cell"
	Index int
	Lo    int // first valid index
	Hi    int // one past the last valid index
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [%d,%d)", e.Op, e.Index, e.Lo, e.Hi)
}

// UndefinedVarError reports a read of a variable that is declared in
// the code metadata but currently holds no value.
type UndefinedVarError struct {
	Name string // declared name of the slot
}

func (e *UndefinedVarError) Error() string {
	return fmt.Sprintf("undefined variable %s", e.Name)
}

func fastRangeError(t *SlotTable, index int) *RangeError {
	return &RangeError{Op: "fast", Index: index, Lo: 0, Hi: t.NumLocals}
}

func cellRangeError(t *SlotTable, index int) *RangeError {
	return &RangeError{Op: "cell", Index: index, Lo: t.NumLocals, Hi: t.TotalSlots()}
}
