// Package asm assembles the line-oriented .ska text format into code
// objects that pkg/vm can execute.
//
// A source file is a sequence of function blocks:
//
//	; a counter shared between main and a nested function
//	fn main
//	  locals bump
//	  cells n
//
//	  const 0
//	  storec n
//	  closure incr
//	  storel bump
//	  pause
//	  loadl bump
//	  call 0
//	  ret
//
//	fn incr
//	  frees n
//	  loadc n
//	  const 1
//	  add
//	  storec n
//	  loadc n
//	  ret
//
// A block starts with "fn name" or "fn name(param, ...)" and runs to
// the next block or the end of the file. The declarations "locals",
// "cells" and "frees" must precede the first instruction; parameters
// are the leading locals. Labels are written "name:" on their own line
// and referenced by jmp and fjmp. Comments run from ";" to the end of
// the line. Instruction operands are symbolic: loadl and storel take a
// local name, loadc and storec a cell or free variable name, closure a
// function name, const a literal (integer, float, quoted string, true,
// false or none).
//
// The file must define a parameterless function main, the entry point.
// Every other function must be captured by exactly one closure
// instruction; its "frees" names are matched against the cells and
// free variables of the capturing function to compute where each
// captured cell comes from.
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-skink/skink/pkg/vm"
)

// ParseError describes an error in an assembly source file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Assemble assembles source text into the entry code object. The
// filename is only used in error messages.
func Assemble(filename string, src []byte) (*vm.Code, error) {
	a := &assembler{filename: filename, fns: make(map[string]*fnBlock)}
	if err := a.parse(src); err != nil {
		return nil, err
	}
	return a.link()
}

// AssembleFile reads and assembles the file at path.
func AssembleFile(path string) (*vm.Code, error) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Assemble(path, src)
}

// ParseLiteral parses a source literal: an integer, a float, a quoted
// string, true, false or none.
func ParseLiteral(s string) (vm.Value, error) {
	switch s {
	case "true":
		return vm.True, nil
	case "false":
		return vm.False, nil
	case "none":
		return vm.None, nil
	}
	if s != "" && s[0] == '"' {
		text, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s", s)
		}
		return vm.String(text), nil
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return vm.Int(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return vm.Float(f), nil
	}
	return nil, fmt.Errorf("bad literal %s", s)
}

var opcodeByName = map[string]vm.Opcode{}

func init() {
	for op := vm.NOP; op <= vm.OpcodeMax; op++ {
		opcodeByName[op.String()] = op
	}
}

type assembler struct {
	filename string
	fns      map[string]*fnBlock
	order    []*fnBlock
}

type fnBlock struct {
	name     string
	line     int
	params   []string
	locals   []string // params first
	cells    []string
	frees    []string
	instrs   []rawInstr
	labels   map[string]uint32
	sawInstr bool
	refs     int
	building bool
	built    *vm.Code
}

type rawInstr struct {
	line    int
	op      vm.Opcode
	operand string
}

func (a *assembler) errf(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{File: a.filename, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (a *assembler) parse(src []byte) error {
	var cur *fnBlock
	sc := bufio.NewScanner(bytes.NewReader(src))
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(stripComment(sc.Text()))
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.ContainsAny(line, " \t") {
			if cur == nil {
				return a.errf(lineno, "label outside a function")
			}
			name := strings.TrimSuffix(line, ":")
			if !isIdent(name) {
				return a.errf(lineno, "bad label name %s", name)
			}
			if _, ok := cur.labels[name]; ok {
				return a.errf(lineno, "duplicate label %s", name)
			}
			cur.labels[name] = uint32(len(cur.instrs))
			continue
		}
		head, rest := splitHead(line)
		switch head {
		case "fn":
			fb, err := a.parseFnHeader(lineno, rest)
			if err != nil {
				return err
			}
			cur = fb
		case "locals", "cells", "frees":
			if cur == nil {
				return a.errf(lineno, "%s declaration outside a function", head)
			}
			if cur.sawInstr {
				return a.errf(lineno, "%s declaration after instructions", head)
			}
			names, err := a.parseNameList(lineno, rest)
			if err != nil {
				return err
			}
			switch head {
			case "locals":
				cur.locals = append(cur.locals, names...)
			case "cells":
				cur.cells = append(cur.cells, names...)
			case "frees":
				cur.frees = append(cur.frees, names...)
			}
		default:
			if cur == nil {
				return a.errf(lineno, "instruction outside a function")
			}
			op, ok := opcodeByName[head]
			if !ok {
				return a.errf(lineno, "unknown instruction %s", head)
			}
			if op >= vm.OpcodeArgMin && rest == "" {
				return a.errf(lineno, "%s needs an operand", head)
			}
			if op < vm.OpcodeArgMin && rest != "" {
				return a.errf(lineno, "%s takes no operand", head)
			}
			cur.sawInstr = true
			cur.instrs = append(cur.instrs, rawInstr{line: lineno, op: op, operand: rest})
		}
	}
	return sc.Err()
}

func (a *assembler) parseFnHeader(lineno int, rest string) (*fnBlock, error) {
	name := rest
	var params []string
	if i := strings.IndexByte(rest, '('); i >= 0 {
		if !strings.HasSuffix(rest, ")") {
			return nil, a.errf(lineno, "bad function header")
		}
		name = strings.TrimSpace(rest[:i])
		inner := strings.TrimSpace(rest[i+1 : len(rest)-1])
		if inner != "" {
			var err error
			params, err = a.parseNameList(lineno, inner)
			if err != nil {
				return nil, err
			}
		}
	}
	if !isIdent(name) {
		return nil, a.errf(lineno, "bad function name %s", name)
	}
	if _, exists := a.fns[name]; exists {
		return nil, a.errf(lineno, "duplicate function %s", name)
	}
	fb := &fnBlock{
		name:   name,
		line:   lineno,
		params: params,
		locals: append([]string{}, params...),
		labels: make(map[string]uint32),
	}
	a.fns[name] = fb
	a.order = append(a.order, fb)
	return fb, nil
}

func (a *assembler) parseNameList(lineno int, rest string) ([]string, error) {
	if rest == "" {
		return nil, a.errf(lineno, "empty name list")
	}
	parts := strings.Split(rest, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if !isIdent(p) {
			return nil, a.errf(lineno, "bad variable name %q", p)
		}
		names = append(names, p)
	}
	return names, nil
}

func (a *assembler) link() (*vm.Code, error) {
	main := a.fns["main"]
	if main == nil {
		return nil, &ParseError{File: a.filename, Line: 0, Msg: "program has no main function"}
	}
	if len(main.params) != 0 {
		return nil, a.errf(main.line, "main takes no parameters")
	}
	for _, fb := range a.order {
		if err := a.checkNames(fb); err != nil {
			return nil, err
		}
		if len(fb.instrs) == 0 || fb.instrs[len(fb.instrs)-1].op != vm.RET {
			return nil, a.errf(fb.line, "function %s does not end with ret", fb.name)
		}
	}
	for _, fb := range a.order {
		for _, in := range fb.instrs {
			if in.op != vm.CLOSURE {
				continue
			}
			child := a.fns[in.operand]
			if child == nil {
				return nil, a.errf(in.line, "unknown function %s", in.operand)
			}
			if child == main {
				return nil, a.errf(in.line, "main cannot be captured")
			}
			child.refs++
			if child.refs > 1 {
				return nil, a.errf(in.line, "function %s is captured in more than one scope", child.name)
			}
		}
	}
	code, err := a.build(main)
	if err != nil {
		return nil, err
	}
	for _, fb := range a.order {
		if fb.built == nil {
			return nil, a.errf(fb.line, "function %s is never used", fb.name)
		}
	}
	return code, nil
}

func (a *assembler) checkNames(fb *fnBlock) error {
	seen := make(map[string]bool)
	for _, group := range [][]string{fb.locals, fb.cells, fb.frees} {
		for _, n := range group {
			if seen[n] {
				return a.errf(fb.line, "duplicate variable %s in %s", n, fb.name)
			}
			seen[n] = true
		}
	}
	return nil
}

func (a *assembler) build(fb *fnBlock) (*vm.Code, error) {
	if fb.building {
		return nil, a.errf(fb.line, "function %s is nested inside itself", fb.name)
	}
	fb.building = true
	defer func() { fb.building = false }()

	code := &vm.Code{
		Name:      fb.name,
		NumParams: len(fb.params),
		Locals:    fb.locals,
		Cells:     fb.cells,
		Frees:     fb.frees,
	}
	constIndex := make(map[vm.Value]uint32)
	for _, in := range fb.instrs {
		instr := vm.Instr{Op: in.op}
		switch in.op {
		case vm.CONST:
			v, err := ParseLiteral(in.operand)
			if err != nil {
				return nil, a.errf(in.line, "%s", err)
			}
			idx, ok := constIndex[v]
			if !ok {
				idx = uint32(len(code.Constants))
				code.Constants = append(code.Constants, v)
				constIndex[v] = idx
			}
			instr.Arg = idx
		case vm.LOADL, vm.STOREL:
			idx := indexOf(fb.locals, in.operand)
			if idx < 0 {
				return nil, a.errf(in.line, "%s is not a local of %s", in.operand, fb.name)
			}
			instr.Arg = uint32(idx)
		case vm.LOADC, vm.STOREC:
			slot, ok := fb.cellSlot(in.operand)
			if !ok {
				return nil, a.errf(in.line, "%s is not a cell or free variable of %s", in.operand, fb.name)
			}
			instr.Arg = slot
		case vm.CLOSURE:
			childCode, err := a.buildChild(fb, a.fns[in.operand])
			if err != nil {
				return nil, err
			}
			instr.Arg = uint32(len(code.Funcs))
			code.Funcs = append(code.Funcs, childCode)
		case vm.CALL:
			n, err := strconv.ParseUint(in.operand, 10, 32)
			if err != nil {
				return nil, a.errf(in.line, "bad argument count %s", in.operand)
			}
			instr.Arg = uint32(n)
		case vm.JMP, vm.FJMP:
			target, ok := fb.labels[in.operand]
			if !ok {
				return nil, a.errf(in.line, "unknown label %s", in.operand)
			}
			instr.Arg = target
		}
		code.Instrs = append(code.Instrs, instr)
		code.Lines = append(code.Lines, int32(in.line))
	}
	fb.built = code
	return code, nil
}

func (a *assembler) buildChild(parent, child *fnBlock) (*vm.Code, error) {
	code, err := a.build(child)
	if err != nil {
		return nil, err
	}
	code.Captures = make([]uint32, 0, len(child.frees))
	for _, name := range child.frees {
		slot, ok := parent.cellSlot(name)
		if !ok {
			return nil, a.errf(child.line, "%s cannot capture %s: not a cell or free variable of %s", child.name, name, parent.name)
		}
		code.Captures = append(code.Captures, slot)
	}
	return code, nil
}

// cellSlot resolves a cell or free variable name to its absolute slot
// index.
func (fb *fnBlock) cellSlot(name string) (uint32, bool) {
	for i, n := range fb.cells {
		if n == name {
			return uint32(len(fb.locals) + i), true
		}
	}
	for i, n := range fb.frees {
		if n == name {
			return uint32(len(fb.locals) + len(fb.cells) + i), true
		}
	}
	return 0, false
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func splitHead(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// stripComment removes a trailing ; comment, leaving string literals
// alone.
func stripComment(line string) string {
	inStr, esc := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case ';':
			return line[:i]
		}
	}
	return line
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
