package vm

import (
	"fmt"
	"strings"
)

// Disasm returns a textual listing of code and every function nested in
// it.
func Disasm(code *Code) string {
	var b strings.Builder
	disasmCode(&b, code)
	return b.String()
}

func disasmCode(b *strings.Builder, c *Code) {
	fmt.Fprintf(b, "%s (params %d, locals %d, cells %d, free %d):\n",
		c.Name, c.NumParams, c.NumLocals(), c.NumCells(), c.NumFree())
	for pc := range c.Instrs {
		fmt.Fprintf(b, "%6d\t%s\n", pc, DisasmInstr(c, uint32(pc)))
	}
	for _, fn := range c.Funcs {
		b.WriteByte('\n')
		disasmCode(b, fn)
	}
}

// DisasmInstr returns the instruction at pc with its operand resolved
// against the code's name tables.
func DisasmInstr(c *Code, pc uint32) string {
	in := c.Instrs[pc]
	if in.Op < OpcodeArgMin {
		return in.Op.String()
	}
	var arg string
	switch in.Op {
	case CONST:
		arg = c.Constants[in.Arg].String()
	case LOADL, STOREL:
		arg = fmt.Sprintf("%d (%s)", in.Arg, c.Locals[in.Arg])
	case LOADC, STOREC:
		name, _ := c.cellSlotName(int(in.Arg))
		arg = fmt.Sprintf("%d (%s)", in.Arg, name)
	case CLOSURE:
		arg = fmt.Sprintf("%d (%s)", in.Arg, c.Funcs[in.Arg].Name)
	default:
		arg = fmt.Sprintf("%d", in.Arg)
	}
	return fmt.Sprintf("%s\t%s", in.Op, arg)
}
