package asm

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-skink/skink/pkg/vm"
)

func mustAssemble(t *testing.T, src string) *vm.Code {
	t.Helper()
	code, err := Assemble("test.ska", []byte(src))
	if err != nil {
		t.Fatalf("Assemble: %s", err)
	}
	return code
}

func TestProgramStructure(t *testing.T) {
	code := mustAssemble(t, `
fn main
  locals bump
  cells n
  const 0
  storec n
  closure incr
  storel bump
  loadl bump
  call 0
  pop
  loadc n
  ret

fn incr
  frees n
  loadc n
  const 1
  add
  storec n
  loadc n
  ret
`)
	if code.Name != "main" || code.NumParams != 0 {
		t.Fatalf("bad entry function: %s/%d", code.Name, code.NumParams)
	}
	if !reflect.DeepEqual(code.Locals, []string{"bump"}) || !reflect.DeepEqual(code.Cells, []string{"n"}) || len(code.Frees) != 0 {
		t.Fatalf("bad main variables: locals %v cells %v frees %v", code.Locals, code.Cells, code.Frees)
	}
	if code.TotalSlots() != 2 {
		t.Errorf("main should have 2 slots, has %d", code.TotalSlots())
	}
	if len(code.Funcs) != 1 {
		t.Fatalf("main should carry 1 nested function, has %d", len(code.Funcs))
	}
	incr := code.Funcs[0]
	if incr.Name != "incr" || !reflect.DeepEqual(incr.Frees, []string{"n"}) {
		t.Fatalf("bad nested function: %+v", incr)
	}
	// n lives after bump in main's slot array
	if !reflect.DeepEqual(incr.Captures, []uint32{1}) {
		t.Errorf("bad captures: %v", incr.Captures)
	}
	// storec n resolves to main's absolute cell slot
	if code.Instrs[1].Op != vm.STOREC || code.Instrs[1].Arg != 1 {
		t.Errorf("bad storec encoding: %+v", code.Instrs[1])
	}
}

func TestParamsAreLeadingLocals(t *testing.T) {
	code := mustAssemble(t, `
fn main
  closure f
  const 10
  const 20
  call 2
  ret

fn f(a, b)
  locals tmp
  loadl a
  loadl b
  add
  storel tmp
  loadl tmp
  ret
`)
	f := code.Funcs[0]
	if f.NumParams != 2 {
		t.Fatalf("f should take 2 parameters, takes %d", f.NumParams)
	}
	if !reflect.DeepEqual(f.Locals, []string{"a", "b", "tmp"}) {
		t.Fatalf("bad locals layout: %v", f.Locals)
	}
	// loadl tmp encodes the slot after the parameters
	last := f.Instrs[len(f.Instrs)-2]
	if last.Op != vm.LOADL || last.Arg != 2 {
		t.Errorf("bad loadl encoding: %+v", last)
	}
}

func TestConstantPooling(t *testing.T) {
	code := mustAssemble(t, `
fn main
  const 1
  const "x"
  const 1
  const 2
  pop
  pop
  pop
  ret
`)
	want := []vm.Value{vm.Int(1), vm.String("x"), vm.Int(2)}
	if !reflect.DeepEqual(code.Constants, want) {
		t.Fatalf("bad constant pool: %v", code.Constants)
	}
	if code.Instrs[0].Arg != 0 || code.Instrs[2].Arg != 0 {
		t.Errorf("repeated literal was not pooled: %+v %+v", code.Instrs[0], code.Instrs[2])
	}
}

func TestLabelResolution(t *testing.T) {
	code := mustAssemble(t, `
fn main
  const 0
top:
  const true
  fjmp out
  jmp top
out:
  ret
`)
	// top points at instruction 1, out past the jmp
	if code.Instrs[2].Op != vm.FJMP || code.Instrs[2].Arg != 4 {
		t.Errorf("bad fjmp target: %+v", code.Instrs[2])
	}
	if code.Instrs[3].Op != vm.JMP || code.Instrs[3].Arg != 1 {
		t.Errorf("bad jmp target: %+v", code.Instrs[3])
	}
}

func TestLineNumbers(t *testing.T) {
	code := mustAssemble(t, `
fn main

  const 1   ; line 4

  pause     ; line 6
  ret
`)
	want := []int32{4, 6, 7}
	if !reflect.DeepEqual(code.Lines, want) {
		t.Fatalf("bad line table: %v", code.Lines)
	}
	if code.Line(1) != 6 || code.Line(99) != 0 {
		t.Errorf("bad Line lookups: %d %d", code.Line(1), code.Line(99))
	}
}

func TestCapturesThroughIntermediateScope(t *testing.T) {
	code := mustAssemble(t, `
fn main
  cells n
  const 1
  storec n
  closure outer
  call 0
  ret

fn outer
  locals tmp
  cells m
  frees n
  const 2
  storec m
  closure inner
  storel tmp
  loadl tmp
  call 0
  ret

fn inner
  frees m, n
  loadc m
  loadc n
  add
  ret
`)
	outer := code.Funcs[0]
	inner := outer.Funcs[0]
	// n is main's only slot
	if !reflect.DeepEqual(outer.Captures, []uint32{0}) {
		t.Errorf("bad outer captures: %v", outer.Captures)
	}
	// in outer, m sits after tmp and n after m
	if !reflect.DeepEqual(inner.Captures, []uint32{1, 2}) {
		t.Errorf("bad inner captures: %v", inner.Captures)
	}
}

func TestAssembleErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want string
	}{
		{"no main", "fn other\n  none\n  ret\n", "program has no main function"},
		{"main with params", "fn main(a)\n  none\n  ret\n", "main takes no parameters"},
		{"label outside function", "start:\nfn main\n  none\n  ret\n", "label outside a function"},
		{"bad label name", "fn main\n1bad:\n  none\n  ret\n", "bad label name 1bad"},
		{"duplicate label", "fn main\na:\na:\n  none\n  ret\n", "duplicate label a"},
		{"declaration outside function", "locals x\nfn main\n  none\n  ret\n", "locals declaration outside a function"},
		{"declaration after instructions", "fn main\n  none\n  cells x\n  ret\n", "cells declaration after instructions"},
		{"empty name list", "fn main\n  locals\n  none\n  ret\n", "empty name list"},
		{"bad variable name", "fn main\n  locals x, 9y\n  none\n  ret\n", `bad variable name "9y"`},
		{"instruction outside function", "none\nfn main\n  none\n  ret\n", "instruction outside a function"},
		{"unknown instruction", "fn main\n  frob 1\n  ret\n", "unknown instruction frob"},
		{"missing operand", "fn main\n  const\n  ret\n", "const needs an operand"},
		{"stray operand", "fn main\n  add 1\n  ret\n", "add takes no operand"},
		{"bad function header", "fn f(a\n  none\n  ret\n", "bad function header"},
		{"bad function name", "fn 2f\n  none\n  ret\n", "bad function name 2f"},
		{"duplicate function", "fn main\n  none\n  ret\nfn main\n  none\n  ret\n", "duplicate function main"},
		{"duplicate variable", "fn main\n  locals x\n  cells x\n  none\n  ret\n", "duplicate variable x in main"},
		{"missing ret", "fn main\n  none\n", "function main does not end with ret"},
		{"empty function", "fn main\n", "function main does not end with ret"},
		{"unknown function", "fn main\n  closure g\n  ret\n", "unknown function g"},
		{"capturing main", "fn main\n  closure main\n  ret\n", "main cannot be captured"},
		{"double capture", "fn main\n  closure f\n  pop\n  closure f\n  ret\nfn f\n  none\n  ret\n", "function f is captured in more than one scope"},
		{"unused function", "fn main\n  none\n  ret\nfn f\n  none\n  ret\n", "function f is never used"},
		{"unknown local", "fn main\n  loadl x\n  ret\n", "x is not a local of main"},
		{"unknown cell", "fn main\n  storec x\n  ret\n", "x is not a cell or free variable of main"},
		{"bad call count", "fn main\n  const 0\n  call x\n  ret\n", "bad argument count x"},
		{"unknown label", "fn main\n  jmp nowhere\n  ret\n", "unknown label nowhere"},
		{"impossible capture", "fn main\n  cells n\n  closure f\n  ret\nfn f\n  frees n, q\n  none\n  ret\n", "f cannot capture q: not a cell or free variable of main"},
		{"bad const literal", "fn main\n  const zz\n  ret\n", "bad literal zz"},
		{"bad const string", "fn main\n  const \"abc\n  ret\n", `bad string literal "abc`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble("test.ska", []byte(tc.src))
			if err == nil {
				t.Fatalf("expected error containing %q, got none", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, err)
			}
			if _, ok := err.(*ParseError); !ok {
				t.Errorf("expected a *ParseError, got %T", err)
			}
		})
	}
}

func TestErrorLocation(t *testing.T) {
	_, err := Assemble("prog.ska", []byte("\nfn main\n  frob\n  ret\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "prog.ska:3: unknown instruction frob" {
		t.Errorf("bad error location: %q", got)
	}
}

func TestParseLiteral(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want vm.Value
	}{
		{"true", vm.True},
		{"false", vm.False},
		{"none", vm.None},
		{"42", vm.Int(42)},
		{"-7", vm.Int(-7)},
		{"0x10", vm.Int(16)},
		{"3.5", vm.Float(3.5)},
		{"1e3", vm.Float(1000)},
		{`"hi\n"`, vm.String("hi\n")},
		{`""`, vm.String("")},
	} {
		got, err := ParseLiteral(tc.in)
		if err != nil {
			t.Errorf("ParseLiteral(%q): %s", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLiteral(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"zz", `"unterminated`, ""} {
		if _, err := ParseLiteral(in); err == nil {
			t.Errorf("ParseLiteral(%q) should fail", in)
		}
	}
}

func TestStripComment(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"const 1 ; trailing", "const 1 "},
		{`const "a;b" ; real comment`, `const "a;b" `},
		{`const "a\";b"`, `const "a\";b"`},
		{"; full line", ""},
		{"const 1", "const 1"},
		{"", ""},
	} {
		if got := stripComment(tc.in); got != tc.want {
			t.Errorf("stripComment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssembleFileMissing(t *testing.T) {
	if _, err := AssembleFile("no/such/file.ska"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
