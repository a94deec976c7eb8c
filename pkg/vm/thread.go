package vm

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-skink/skink/pkg/logflags"
)

// State describes what a thread is currently doing.
type State uint8

const (
	Idle    State = iota // created, Start not called yet
	Running              // inside the dispatch loop
	Paused               // suspended at a pause instruction or by Interrupt
	Exited               // the entry function returned
	Failed               // a runtime fault stopped the program
)

var stateNames = [...]string{
	Idle:    "idle",
	Running: "running",
	Paused:  "paused",
	Exited:  "exited",
	Failed:  "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("unknown state (%d)", s)
}

var (
	// ErrAlreadyStarted is returned by Start and Run when the thread has
	// run before. Threads are single use; make a new one to restart.
	ErrAlreadyStarted = errors.New("thread has already started")
	// ErrNotPaused is returned by Resume and Step when the thread has
	// nothing to continue.
	ErrNotPaused = errors.New("thread is not paused")
)

// Calls nest at most this deep before the thread faults.
const maxCallDepth = 1024

// Thread runs one program. A thread is owned by a single goroutine:
// Start, Run, Resume and Step must all be called from the same one.
// Interrupt is the only method safe to call concurrently with them.
type Thread struct {
	// Name identifies the thread in logs.
	Name string

	// Print is invoked by the print instruction. If nil the text goes to
	// standard output.
	Print func(t *Thread, msg string)

	// Steps counts instructions executed over the thread's lifetime.
	Steps uint64

	frames       []*Frame
	state        State
	result       Value
	err          error
	interrupt    int32
	resumeNotify chan struct{}
	log          logflags.Logger
}

// NewThread returns an idle thread.
func NewThread(name string) *Thread {
	return &Thread{Name: name, log: logflags.VMLogger()}
}

// State returns the thread's current state.
func (t *Thread) State() State { return t.state }

// Result returns the value the entry function returned. It is only
// meaningful in the Exited state.
func (t *Thread) Result() Value { return t.result }

// Err returns the fault that stopped the thread, or nil. The fault is
// always a *EvalError.
func (t *Thread) Err() error { return t.err }

// NumFrames returns the depth of the call stack.
func (t *Thread) NumFrames() int { return len(t.frames) }

// Frame returns the i'th frame, 0 being the innermost. The frames of a
// Failed thread remain available for post-mortem inspection; those of
// an Exited thread are gone.
func (t *Thread) Frame(i int) *Frame {
	return t.frames[len(t.frames)-1-i]
}

// Interrupt asks a running thread to suspend at the next instruction
// boundary. It may be called from any goroutine and is a no-op on a
// thread that is not running.
func (t *Thread) Interrupt() {
	atomic.StoreInt32(&t.interrupt, 1)
}

// ResumeNotify sets a channel that will be closed the next time the
// thread starts running, after the point where an Interrupt is
// guaranteed to be seen. The RPC layer uses it to order a halt request
// after the resume it targets.
func (t *Thread) ResumeNotify(ch chan struct{}) {
	t.resumeNotify = ch
}

// Start loads code as the entry point and leaves the thread paused
// before its first instruction. The entry function takes no parameters.
func (t *Thread) Start(code *Code) error {
	if t.state != Idle {
		return ErrAlreadyStarted
	}
	if code.NumParams != 0 {
		return fmt.Errorf("function %s takes %d parameters and cannot be an entry point", code.Name, code.NumParams)
	}
	t.frames = append(t.frames, newFrame(code, nil, nil))
	t.state = Paused
	return nil
}

// Run is Start followed by Resume.
func (t *Thread) Run(code *Code) (State, error) {
	if err := t.Start(code); err != nil {
		return t.state, err
	}
	return t.Resume()
}

// Resume continues a paused thread until the next pause, exit or fault.
func (t *Thread) Resume() (State, error) {
	if t.state != Paused {
		return t.state, ErrNotPaused
	}
	return t.run(-1)
}

// Step executes exactly one instruction of the innermost frame and
// pauses again.
func (t *Thread) Step() (State, error) {
	if t.state != Paused {
		return t.state, ErrNotPaused
	}
	return t.run(1)
}

func (t *Thread) run(limit int) (State, error) {
	t.state = Running
	// Interrupt requests that arrived while the thread was paused are
	// already satisfied; only requests made from here on stop this run.
	atomic.StoreInt32(&t.interrupt, 0)
	if t.resumeNotify != nil {
		close(t.resumeNotify)
		t.resumeNotify = nil
	}
	err := t.dispatch(limit)
	switch {
	case err != nil:
		t.err = t.evalError(err)
		t.state = Failed
		return t.state, t.err
	case len(t.frames) == 0:
		t.state = Exited
		return t.state, nil
	default:
		t.state = Paused
		return t.state, nil
	}
}

// dispatch is the interpreter loop. A nil return with frames remaining
// means the program paused; with no frames it has exited.
func (t *Thread) dispatch(limit int) error {
	for {
		if len(t.frames) == 0 {
			return nil
		}
		if atomic.CompareAndSwapInt32(&t.interrupt, 1, 0) {
			return nil
		}
		fr := t.frames[len(t.frames)-1]
		if int(fr.pc) >= len(fr.code.Instrs) {
			return fmt.Errorf("pc %d out of range in %s", fr.pc, fr.code.Name)
		}
		in := fr.code.Instrs[fr.pc]
		if logflags.VM() {
			t.log.Debugf("%s @%-4d %s", fr.code.Name, fr.pc, DisasmInstr(fr.code, fr.pc))
		}
		fr.pc++
		t.Steps++

		switch in.Op {
		case NOP:
		case NONE:
			fr.push(None)
		case TRUE:
			fr.push(True)
		case FALSE:
			fr.push(False)
		case POP:
			fr.pop()
		case DUP:
			fr.push(fr.top())
		case CONST:
			fr.push(fr.code.Constants[in.Arg])
		case LOADL:
			v := fr.slots[in.Arg]
			if v == nil {
				return fmt.Errorf("local variable %s referenced before assignment", fr.code.Locals[in.Arg])
			}
			fr.push(v)
		case STOREL:
			fr.slots[in.Arg] = fr.pop()
		case LOADC:
			v := fr.slots[in.Arg].(*Cell).Get()
			if v == nil {
				name, free := fr.code.cellSlotName(int(in.Arg))
				if free {
					return fmt.Errorf("free variable %s referenced before assignment in enclosing scope", name)
				}
				return fmt.Errorf("local variable %s referenced before assignment", name)
			}
			fr.push(v)
		case STOREC:
			fr.slots[in.Arg].(*Cell).Set(fr.pop())
		case CLOSURE:
			proto := fr.code.Funcs[in.Arg]
			free := make([]*Cell, len(proto.Frees))
			for i, idx := range proto.Captures {
				cell, ok := fr.slots[idx].(*Cell)
				if !ok {
					return fmt.Errorf("capture of non-cell slot %d in %s", idx, fr.code.Name)
				}
				free[i] = cell
			}
			fr.push(&Closure{Code: proto, Free: free})
		case CALL:
			argc := int(in.Arg)
			args := make([]Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = fr.pop()
			}
			callee := fr.pop()
			fn, ok := callee.(*Closure)
			if !ok {
				return fmt.Errorf("%s value is not callable", callee.Type())
			}
			if fn.Code.NumParams != argc {
				return fmt.Errorf("function %s takes %d arguments, got %d", fn.Code.Name, fn.Code.NumParams, argc)
			}
			if len(t.frames) >= maxCallDepth {
				return fmt.Errorf("call stack exhausted")
			}
			t.frames = append(t.frames, newFrame(fn.Code, fn, args))
		case RET:
			ret := fr.pop()
			t.frames[len(t.frames)-1] = nil
			t.frames = t.frames[:len(t.frames)-1]
			if len(t.frames) == 0 {
				t.result = ret
				return nil
			}
			t.frames[len(t.frames)-1].push(ret)
		case PAUSE:
			return nil
		case JMP:
			fr.pc = in.Arg
		case FJMP:
			if !fr.pop().Truth() {
				fr.pc = in.Arg
			}
		case ADD, SUB, MUL, DIV:
			y := fr.pop()
			x := fr.pop()
			v, err := binaryOp(in.Op, x, y)
			if err != nil {
				return err
			}
			fr.push(v)
		case EQL:
			y := fr.pop()
			x := fr.pop()
			fr.push(Bool(equalValues(x, y)))
		case LT, GT:
			y := fr.pop()
			x := fr.pop()
			v, err := compareOp(in.Op, x, y)
			if err != nil {
				return err
			}
			fr.push(v)
		case NOT:
			fr.push(Bool(!fr.pop().Truth()))
		case NEG:
			switch v := fr.pop().(type) {
			case Int:
				fr.push(-v)
			case Float:
				fr.push(-v)
			default:
				return fmt.Errorf("bad operand type for unary -: %s", v.Type())
			}
		case PRINT:
			v := fr.pop()
			msg := v.String()
			if s, ok := v.(String); ok {
				msg = s.Text()
			}
			if t.Print != nil {
				t.Print(t, msg)
			} else {
				fmt.Println(msg)
			}
		default:
			return fmt.Errorf("illegal opcode %d", in.Op)
		}

		if limit > 0 {
			limit--
			if limit == 0 {
				return nil
			}
		}
	}
}

// EvalError is a runtime fault, carrying the guest call stack at the
// point of failure.
type EvalError struct {
	Msg   string
	Stack []string // outermost frame first
}

func (e *EvalError) Error() string { return e.Msg }

// Backtrace returns a multi-line description of the guest stack at the
// point of failure.
func (e *EvalError) Backtrace() string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, fr := range e.Stack {
		fmt.Fprintf(&b, "  %s\n", fr)
	}
	b.WriteString("Error: " + e.Msg)
	return b.String()
}

func (t *Thread) evalError(err error) *EvalError {
	if ee, ok := err.(*EvalError); ok {
		return ee
	}
	stack := make([]string, 0, len(t.frames))
	for _, fr := range t.frames {
		pc := fr.pc
		// pc has advanced past the faulting instruction
		if pc > 0 {
			pc--
		}
		stack = append(stack, fmt.Sprintf("%s (line %d)", fr.code.Name, fr.code.Line(pc)))
	}
	return &EvalError{Msg: err.Error(), Stack: stack}
}
