package vm

// Frame is one activation record of a running thread.
//
// Local variable storage is a single slot array laid out in three
// contiguous ranges: fast locals in [0, NumLocals), cells in
// [NumLocals, NumLocals+NumCells), captured free variables after that.
// Fast slots hold values directly, with nil meaning the variable is not
// currently bound. Cell and free slots hold the *Cell boxes installed
// when the frame was created; the boxes themselves are never replaced.
type Frame struct {
	code  *Code
	fn    *Closure // nil for the entry frame
	slots []Value
	stack []Value
	pc    uint32
}

func newFrame(code *Code, fn *Closure, args []Value) *Frame {
	fr := &Frame{
		code:  code,
		fn:    fn,
		slots: make([]Value, code.TotalSlots()),
	}
	copy(fr.slots, args)
	nlocals := code.NumLocals()
	for i := 0; i < code.NumCells(); i++ {
		fr.slots[nlocals+i] = NewCell()
	}
	if fn != nil {
		base := nlocals + code.NumCells()
		for i, cell := range fn.Free {
			fr.slots[base+i] = cell
		}
	}
	return fr
}

// Code returns the code object the frame is executing.
func (f *Frame) Code() *Code { return f.code }

// PC returns the index of the next instruction to execute.
func (f *Frame) PC() uint32 { return f.pc }

// Line returns the source line the frame is positioned at.
func (f *Frame) Line() int32 { return f.code.Line(f.pc) }

// NumSlots returns the length of the slot array.
func (f *Frame) NumSlots() int { return len(f.slots) }

// Slot returns the raw contents of slot i: a value or nil for fast
// slots, a *Cell for cell and free slots.
//
// Slot and SetSlot expose the storage without any validation so that
// debug tooling can reach it. Almost every caller should go through
// package locals instead, which checks indexes and never disturbs cell
// bindings.
func (f *Frame) Slot(i int) Value { return f.slots[i] }

// SetSlot stores v into slot i without validation. See Slot.
func (f *Frame) SetSlot(i int, v Value) { f.slots[i] = v }

// Operand stack. Underflow is a dispatcher bug, not a guest error.

func (f *Frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() Value {
	if len(f.stack) == 0 {
		panic("operand stack underflow")
	}
	v := f.stack[len(f.stack)-1]
	f.stack[len(f.stack)-1] = nil
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *Frame) top() Value {
	if len(f.stack) == 0 {
		panic("operand stack underflow")
	}
	return f.stack[len(f.stack)-1]
}
