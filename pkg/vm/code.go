package vm

import "fmt"

// Opcode identifies a virtual machine instruction.
type Opcode uint8

const (
	NOP Opcode = iota
	NONE
	TRUE
	FALSE
	POP
	DUP
	RET
	PAUSE
	ADD
	SUB
	MUL
	DIV
	EQL
	LT
	GT
	NOT
	NEG
	PRINT

	// opcodes with an argument must go below this line

	CONST   // push Constants[arg]
	LOADL   // push fast local arg; fault if unbound
	STOREL  // pop into fast local arg
	LOADC   // push contents of the cell in slot arg; fault if empty
	STOREC  // pop into the cell in slot arg
	CLOSURE // push a closure of Funcs[arg], capturing per its Captures
	CALL    // call with arg arguments
	JMP     // jump to instruction arg
	FJMP    // pop; jump to instruction arg if false
)

// OpcodeArgMin is the first opcode that carries an argument.
const OpcodeArgMin = CONST

// OpcodeMax is the last valid opcode.
const OpcodeMax = FJMP

var opcodeNames = [OpcodeMax + 1]string{
	ADD:     "add",
	CALL:    "call",
	CLOSURE: "closure",
	CONST:   "const",
	DIV:     "div",
	DUP:     "dup",
	EQL:     "eql",
	FALSE:   "false",
	FJMP:    "fjmp",
	GT:      "gt",
	JMP:     "jmp",
	LOADC:   "loadc",
	LOADL:   "loadl",
	LT:      "lt",
	MUL:     "mul",
	NEG:     "neg",
	NONE:    "none",
	NOP:     "nop",
	NOT:     "not",
	PAUSE:   "pause",
	POP:     "pop",
	PRINT:   "print",
	RET:     "ret",
	STOREC:  "storec",
	STOREL:  "storel",
	SUB:     "sub",
	TRUE:    "true",
}

func (op Opcode) String() string {
	if op <= OpcodeMax {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Instr is a single fixed-width instruction.
type Instr struct {
	Op  Opcode
	Arg uint32
}

// Code is the compiled form of one function. A Code is immutable after
// assembly: the dispatcher, the slot accessor and the tooling all read
// it and none of them write it.
type Code struct {
	Name      string   // function name as written in the source
	NumParams int      // leading Locals that receive call arguments
	Locals    []string // fast local names, parameters first
	Cells     []string // locals shared with nested functions, boxed in cells
	Frees     []string // variables captured from the enclosing function
	Captures  []uint32 // enclosing-frame slot index for each free variable
	Constants []Value
	Funcs     []*Code // nested function prototypes, in closure order
	Instrs    []Instr
	Lines     []int32 // source line of each instruction
}

// NumLocals returns the number of fast local slots.
func (c *Code) NumLocals() int { return len(c.Locals) }

// NumCells returns the number of cell slots.
func (c *Code) NumCells() int { return len(c.Cells) }

// NumFree returns the number of captured free variable slots.
func (c *Code) NumFree() int { return len(c.Frees) }

// TotalSlots returns the size of a frame's slot array: fast locals
// first, then cells, then captured free variables.
func (c *Code) TotalSlots() int { return len(c.Locals) + len(c.Cells) + len(c.Frees) }

// Line returns the source line of the instruction at pc, or 0.
func (c *Code) Line(pc uint32) int32 {
	if int(pc) < len(c.Lines) {
		return c.Lines[pc]
	}
	return 0
}

// cellSlotName resolves an absolute cell-range slot index to its
// declared name, reporting whether it names a captured free variable.
func (c *Code) cellSlotName(i int) (name string, free bool) {
	i -= len(c.Locals)
	if i < len(c.Cells) {
		return c.Cells[i], false
	}
	return c.Frees[i-len(c.Cells)], true
}
