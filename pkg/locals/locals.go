// Package locals gives external tools validated access to the local
// variable storage of a live frame.
//
// A frame keeps its variables in a single slot array: fast locals
// first, then cells, then captured free variables (see vm.Frame). The
// dispatcher trusts its own compiled indexes and accesses that array
// unchecked; everything else goes through this package, which validates
// every index against the frame's code metadata before touching
// storage.
//
// The fast operations address the fast range with indexes in
// [0, NumLocals). The cell operations address the cell and free ranges
// with absolute slot indexes in [NumLocals, TotalSlots), and only ever
// touch cell contents: the binding of a slot to its cell is never
// altered, so value sharing between closures stays intact no matter
// what an external tool writes.
//
// Failures are *RangeError (index outside the operation's range,
// reported before any mutation) or *UndefinedVarError (reading a
// variable that currently has no value). Set and Clear cannot fail once
// the index is validated, and clearing an already empty slot is a
// no-op.
//
// The package does no locking. Callers that share a thread across
// goroutines must serialize access themselves, the way
// inspector.Inspector does.
package locals

import (
	"fmt"

	"github.com/go-skink/skink/pkg/vm"
)

// GetFast returns the value bound to fast local slot index of fr.
func GetFast(fr *vm.Frame, index int) (vm.Value, error) {
	st := TableFor(fr.Code())
	if !st.ValidFastIndex(index) {
		return nil, fastRangeError(st, index)
	}
	v := fr.Slot(index)
	if v == nil {
		return nil, &UndefinedVarError{Name: st.Name(index)}
	}
	return v, nil
}

// SetFast binds fast local slot index of fr to val, replacing any
// previous value. val must not be nil; use ClearFast to unbind.
func SetFast(fr *vm.Frame, index int, val vm.Value) error {
	if val == nil {
		panic("locals: SetFast with nil value")
	}
	st := TableFor(fr.Code())
	if !st.ValidFastIndex(index) {
		return fastRangeError(st, index)
	}
	fr.SetSlot(index, val)
	return nil
}

// ClearFast unbinds fast local slot index of fr. The slot becomes
// undefined; clearing it again is not an error.
func ClearFast(fr *vm.Frame, index int) error {
	st := TableFor(fr.Code())
	if !st.ValidFastIndex(index) {
		return fastRangeError(st, index)
	}
	fr.SetSlot(index, nil)
	return nil
}

// GetCell returns the contents of the cell in slot index of fr.
func GetCell(fr *vm.Frame, index int) (vm.Value, error) {
	st := TableFor(fr.Code())
	if !st.ValidCellIndex(index) {
		return nil, cellRangeError(st, index)
	}
	v := cellAt(fr, index).Get()
	if v == nil {
		return nil, &UndefinedVarError{Name: st.Name(index)}
	}
	return v, nil
}

// SetCell stores val into the cell in slot index of fr. Every frame
// and closure sharing the cell sees the new value. val must not be
// nil; use ClearCell to empty the cell.
func SetCell(fr *vm.Frame, index int, val vm.Value) error {
	if val == nil {
		panic("locals: SetCell with nil value")
	}
	st := TableFor(fr.Code())
	if !st.ValidCellIndex(index) {
		return cellRangeError(st, index)
	}
	cellAt(fr, index).Set(val)
	return nil
}

// ClearCell empties the cell in slot index of fr, leaving the cell
// itself bound to the slot. Clearing an empty cell is not an error.
func ClearCell(fr *vm.Frame, index int) error {
	st := TableFor(fr.Code())
	if !st.ValidCellIndex(index) {
		return cellRangeError(st, index)
	}
	cellAt(fr, index).Clear()
	return nil
}

// cellAt returns the cell in a validated cell-range slot. A slot in
// that range holding anything but a *Cell means the frame was built
// wrong, which is not a condition the caller can handle.
func cellAt(fr *vm.Frame, index int) *vm.Cell {
	cell, ok := fr.Slot(index).(*vm.Cell)
	if !ok {
		panic(fmt.Sprintf("locals: slot %d of %s does not hold a cell", index, fr.Code().Name))
	}
	return cell
}
