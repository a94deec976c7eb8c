// Package vm implements the skink virtual machine: values, code
// objects, cells, frames and the instruction dispatch loop.
//
// A Thread executes one program. Programs suspend themselves with the
// pause instruction (or are suspended with Interrupt), and while a
// thread is paused its frames stay addressable, which is what makes
// external inspection of live local variables possible. Package locals
// builds the validated accessor on top of the raw frame storage exposed
// here.
package vm

import (
	"fmt"
	"strconv"
)

// Value is the interface satisfied by every value that can appear on a
// frame's operand stack or in its slot array.
type Value interface {
	// Type returns the name of the value's type ("int", "str", ...).
	Type() string
	// String returns the source-literal form of the value.
	String() string
	// Truth reports whether a conditional jump treats the value as true.
	Truth() bool
}

// NoneType is the type of None, the unit value.
type NoneType struct{}

// None is the sole value of type NoneType.
var None = NoneType{}

func (NoneType) Type() string   { return "none" }
func (NoneType) String() string { return "none" }
func (NoneType) Truth() bool    { return false }

// Bool is the type of boolean values.
type Bool bool

const (
	True  Bool = true
	False Bool = false
)

func (Bool) Type() string { return "bool" }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Truth() bool { return bool(b) }

// Int is the type of integer values.
type Int int64

func (Int) Type() string     { return "int" }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Truth() bool    { return i != 0 }

// Float is the type of floating point values.
type Float float64

func (Float) Type() string     { return "float" }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Truth() bool    { return f != 0 }

// String is the type of string values. Its String method returns the
// quoted source form; Text returns the raw contents.
type String string

func (String) Type() string     { return "str" }
func (s String) String() string { return strconv.Quote(string(s)) }
func (s String) Truth() bool    { return len(s) > 0 }

// Text returns the string's contents without quoting.
func (s String) Text() string { return string(s) }

// Closure is a function value: a code object bound to the cells it
// captured from the frame that made it.
type Closure struct {
	Code *Code
	Free []*Cell
}

func (*Closure) Type() string { return "function" }
func (c *Closure) String() string {
	return fmt.Sprintf("<function %s>", c.Code.Name)
}
func (*Closure) Truth() bool { return true }

var opSymbols = map[Opcode]string{
	ADD: "+",
	SUB: "-",
	MUL: "*",
	DIV: "/",
	LT:  "<",
	GT:  ">",
}

func binaryOp(op Opcode, x, y Value) (Value, error) {
	switch op {
	case ADD:
		switch x := x.(type) {
		case Int:
			switch y := y.(type) {
			case Int:
				return x + y, nil
			case Float:
				return Float(x) + y, nil
			}
		case Float:
			switch y := y.(type) {
			case Int:
				return x + Float(y), nil
			case Float:
				return x + y, nil
			}
		case String:
			if y, ok := y.(String); ok {
				return x + y, nil
			}
		}
	case SUB, MUL, DIV:
		switch x := x.(type) {
		case Int:
			switch y := y.(type) {
			case Int:
				return intOp(op, x, y)
			case Float:
				return floatOp(op, Float(x), y)
			}
		case Float:
			switch y := y.(type) {
			case Int:
				return floatOp(op, x, Float(y))
			case Float:
				return floatOp(op, x, y)
			}
		}
	}
	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", opSymbols[op], x.Type(), y.Type())
}

func intOp(op Opcode, x, y Int) (Value, error) {
	switch op {
	case SUB:
		return x - y, nil
	case MUL:
		return x * y, nil
	default: // DIV
		if y == 0 {
			return nil, fmt.Errorf("integer division by zero")
		}
		return x / y, nil
	}
}

func floatOp(op Opcode, x, y Float) (Value, error) {
	switch op {
	case SUB:
		return x - y, nil
	case MUL:
		return x * y, nil
	default: // DIV
		if y == 0 {
			return nil, fmt.Errorf("float division by zero")
		}
		return x / y, nil
	}
}

// equalValues implements eql. Numeric values compare across Int and
// Float; everything else compares by dynamic type and value, which for
// functions means identity.
func equalValues(x, y Value) bool {
	switch x := x.(type) {
	case Int:
		switch y := y.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := y.(type) {
		case Int:
			return x == Float(y)
		case Float:
			return x == y
		}
		return false
	}
	return x == y
}

func compareOp(op Opcode, x, y Value) (Value, error) {
	switch x := x.(type) {
	case Int:
		switch y := y.(type) {
		case Int:
			return ordered(op, x < y, x > y), nil
		case Float:
			return ordered(op, Float(x) < y, Float(x) > y), nil
		}
	case Float:
		switch y := y.(type) {
		case Int:
			return ordered(op, x < Float(y), x > Float(y)), nil
		case Float:
			return ordered(op, x < y, x > y), nil
		}
	case String:
		if y, ok := y.(String); ok {
			return ordered(op, x < y, x > y), nil
		}
	}
	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", opSymbols[op], x.Type(), y.Type())
}

func ordered(op Opcode, lt, gt bool) Value {
	if op == LT {
		return Bool(lt)
	}
	return Bool(gt)
}
