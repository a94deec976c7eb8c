// Package inspector implements the session layer between the service
// boundary and the virtual machine. An Inspector owns the target
// thread; every client request goes through it and is serialized by
// the target mutex, so the slot accessor in pkg/locals always sees a
// quiescent frame even when several clients are connected.
package inspector

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-skink/skink/pkg/asm"
	"github.com/go-skink/skink/pkg/locals"
	"github.com/go-skink/skink/pkg/logflags"
	"github.com/go-skink/skink/pkg/vm"
	"github.com/go-skink/skink/service/api"
)

// ErrProgramExited is returned by Resume and Step when the target has
// already finished.
var ErrProgramExited = errors.New("the program has exited")

// Config describes how to start an inspection session.
type Config struct {
	// Path is the .ska program to assemble and load.
	Path string
	// Stdout receives the target's print output. Defaults to the
	// standard output of the server process.
	Stdout io.Writer
}

// Inspector provides a mutex-protected session around a target thread.
// Its methods may be called from multiple client goroutines.
type Inspector struct {
	config *Config

	// targetMutex serializes access to the thread and its frames. It
	// is held for the whole of Resume, so inspection requests block
	// until the target pauses again.
	targetMutex sync.Mutex
	thread      *vm.Thread
	program     *vm.Code

	log logflags.Logger
}

// New creates a new Inspector. It assembles the program at config.Path
// and loads it, paused before the first instruction of main.
func New(config *Config) (*Inspector, error) {
	d := &Inspector{
		config: config,
		log:    logflags.InspectorLogger(),
	}
	program, err := asm.AssembleFile(config.Path)
	if err != nil {
		return nil, err
	}
	d.program = program
	d.thread = d.newThread()
	if err := d.thread.Start(program); err != nil {
		return nil, err
	}
	d.log.Debugf("loaded %s", config.Path)
	return d, nil
}

func (d *Inspector) newThread() *vm.Thread {
	th := vm.NewThread(d.config.Path)
	if d.config.Stdout != nil {
		out := d.config.Stdout
		th.Print = func(_ *vm.Thread, msg string) {
			fmt.Fprintln(out, msg)
		}
	}
	return th
}

// ProgramPath returns the path of the program being inspected.
func (d *Inspector) ProgramPath() string {
	return d.config.Path
}

// State returns the current state of the target.
func (d *Inspector) State() (*api.ThreadState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return api.ConvertThreadState(d.thread), nil
}

// Resume continues the target until its next pause, exit or fault. A
// runtime fault of the target is reported in the returned state, not
// as an error. If resumeNotify is non-nil it is closed as soon as the
// target is running and a Halt can take effect.
func (d *Inspector) Resume(resumeNotify chan struct{}) (*api.ThreadState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	d.log.Debug("resuming")
	if d.thread.State() == vm.Exited {
		return nil, ErrProgramExited
	}
	if resumeNotify != nil {
		d.thread.ResumeNotify(resumeNotify)
	}
	if _, err := d.thread.Resume(); err != nil && !isGuestFault(err) {
		// The thread never ran, so it still holds the notify channel;
		// drop it before the caller closes it.
		d.thread.ResumeNotify(nil)
		return nil, err
	}
	return api.ConvertThreadState(d.thread), nil
}

// Step executes a single instruction of the target.
func (d *Inspector) Step() (*api.ThreadState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	if d.thread.State() == vm.Exited {
		return nil, ErrProgramExited
	}
	if _, err := d.thread.Step(); err != nil && !isGuestFault(err) {
		return nil, err
	}
	return api.ConvertThreadState(d.thread), nil
}

// isGuestFault distinguishes faults of the target program, which are
// ordinary states to report, from misuse of the session itself.
func isGuestFault(err error) bool {
	_, ok := err.(*vm.EvalError)
	return ok
}

// Halt makes a running target pause at the next instruction boundary.
// The interrupt request is issued without the target mutex, which the
// resuming client holds for as long as the target runs; Halt then
// waits for the mutex to report the state the target stopped in.
func (d *Inspector) Halt() (*api.ThreadState, error) {
	d.thread.Interrupt()
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return api.ConvertThreadState(d.thread), nil
}

// Restart reassembles the program and replaces the target with a fresh
// thread, paused before the first instruction. Edits to the program
// file are picked up.
func (d *Inspector) Restart() (*api.ThreadState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	program, err := asm.AssembleFile(d.config.Path)
	if err != nil {
		return nil, err
	}
	d.program = program
	d.thread = d.newThread()
	if err := d.thread.Start(program); err != nil {
		return nil, err
	}
	d.log.Debugf("restarted %s", d.config.Path)
	return api.ConvertThreadState(d.thread), nil
}

// Detach ends the inspection session. If halt is true a running target
// is interrupted first.
func (d *Inspector) Detach(halt bool) error {
	if halt {
		d.thread.Interrupt()
	}
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	d.log.Debug("detaching")
	return nil
}

// Stacktrace returns the live frames of the target, innermost first.
func (d *Inspector) Stacktrace() ([]api.Frame, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	frames := make([]api.Frame, 0, d.thread.NumFrames())
	for i := 0; i < d.thread.NumFrames(); i++ {
		frames = append(frames, api.ConvertFrame(i, d.thread.Frame(i)))
	}
	return frames, nil
}

// frameAt returns the live frame at stack index frame. The caller must
// hold the target mutex.
func (d *Inspector) frameAt(frame int) (*vm.Frame, error) {
	if frame < 0 || frame >= d.thread.NumFrames() {
		return nil, fmt.Errorf("frame %d does not exist (stack depth %d)", frame, d.thread.NumFrames())
	}
	return d.thread.Frame(frame), nil
}

// FrameVariables lists every declared variable of a frame in slot
// order: fast locals, cells, then captured free variables. Variables
// that currently hold no value are reported as unbound.
func (d *Inspector) FrameVariables(frame int) ([]api.Variable, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, err := d.frameAt(frame)
	if err != nil {
		return nil, err
	}
	st := locals.TableFor(fr.Code())
	vars := make([]api.Variable, 0, st.TotalSlots())
	for i := 0; i < st.TotalSlots(); i++ {
		vars = append(vars, variableAt(fr, st, i))
	}
	return vars, nil
}

func variableAt(fr *vm.Frame, st *locals.SlotTable, i int) api.Variable {
	var v vm.Value
	var err error
	kind := st.Kind(i)
	if kind == locals.LocalSlot {
		v, err = locals.GetFast(fr, i)
	} else {
		v, err = locals.GetCell(fr, i)
	}
	if err != nil {
		v = nil
	}
	return api.ConvertVariable(st.Name(i), kind, i, v)
}

// GetFast returns the value of fast local slot index of a frame.
func (d *Inspector) GetFast(frame, index int) (*api.Variable, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, err := d.frameAt(frame)
	if err != nil {
		return nil, err
	}
	v, err := locals.GetFast(fr, index)
	if err != nil {
		return nil, err
	}
	return convertSlot(fr, index, v), nil
}

// SetFast stores the value described by a source literal into fast
// local slot index of a frame.
func (d *Inspector) SetFast(frame, index int, value string) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, v, err := d.frameAndValue(frame, value)
	if err != nil {
		return err
	}
	return locals.SetFast(fr, index, v)
}

// ClearFast unbinds fast local slot index of a frame.
func (d *Inspector) ClearFast(frame, index int) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, err := d.frameAt(frame)
	if err != nil {
		return err
	}
	return locals.ClearFast(fr, index)
}

// GetCell returns the contents of the cell in slot index of a frame.
func (d *Inspector) GetCell(frame, index int) (*api.Variable, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, err := d.frameAt(frame)
	if err != nil {
		return nil, err
	}
	v, err := locals.GetCell(fr, index)
	if err != nil {
		return nil, err
	}
	return convertSlot(fr, index, v), nil
}

// SetCell stores the value described by a source literal into the cell
// in slot index of a frame.
func (d *Inspector) SetCell(frame, index int, value string) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, v, err := d.frameAndValue(frame, value)
	if err != nil {
		return err
	}
	return locals.SetCell(fr, index, v)
}

// ClearCell empties the cell in slot index of a frame.
func (d *Inspector) ClearCell(frame, index int) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, err := d.frameAt(frame)
	if err != nil {
		return err
	}
	return locals.ClearCell(fr, index)
}

func (d *Inspector) frameAndValue(frame int, value string) (*vm.Frame, vm.Value, error) {
	fr, err := d.frameAt(frame)
	if err != nil {
		return nil, nil, err
	}
	v, err := asm.ParseLiteral(value)
	if err != nil {
		return nil, nil, err
	}
	return fr, v, nil
}

func convertSlot(fr *vm.Frame, index int, v vm.Value) *api.Variable {
	st := locals.TableFor(fr.Code())
	av := api.ConvertVariable(st.Name(index), st.Kind(index), index, v)
	return &av
}

// GetVariable resolves a declared name in a frame and returns its
// value.
func (d *Inspector) GetVariable(frame int, name string) (*api.Variable, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, kind, index, err := d.lookup(frame, name)
	if err != nil {
		return nil, err
	}
	var v vm.Value
	if kind == locals.LocalSlot {
		v, err = locals.GetFast(fr, index)
	} else {
		v, err = locals.GetCell(fr, index)
	}
	if err != nil {
		return nil, err
	}
	av := api.ConvertVariable(name, kind, index, v)
	return &av, nil
}

// SetVariable resolves a declared name in a frame and sets it to the
// value described by a source literal.
func (d *Inspector) SetVariable(frame int, name, value string) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, kind, index, err := d.lookup(frame, name)
	if err != nil {
		return err
	}
	v, err := asm.ParseLiteral(value)
	if err != nil {
		return err
	}
	if kind == locals.LocalSlot {
		return locals.SetFast(fr, index, v)
	}
	return locals.SetCell(fr, index, v)
}

// ClearVariable resolves a declared name in a frame and unbinds it.
func (d *Inspector) ClearVariable(frame int, name string) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	fr, kind, index, err := d.lookup(frame, name)
	if err != nil {
		return err
	}
	if kind == locals.LocalSlot {
		return locals.ClearFast(fr, index)
	}
	return locals.ClearCell(fr, index)
}

func (d *Inspector) lookup(frame int, name string) (*vm.Frame, locals.SlotKind, int, error) {
	fr, err := d.frameAt(frame)
	if err != nil {
		return nil, locals.InvalidSlot, 0, err
	}
	kind, index, ok := locals.TableFor(fr.Code()).Lookup(name)
	if !ok {
		return nil, locals.InvalidSlot, 0, fmt.Errorf("no variable %s in %s", name, fr.Code().Name)
	}
	return fr, kind, index, nil
}

// Disassemble lists the function executing in a frame; a negative
// frame lists the whole program from the entry function.
func (d *Inspector) Disassemble(frame int) (string, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	if frame < 0 {
		return vm.Disasm(d.program), nil
	}
	fr, err := d.frameAt(frame)
	if err != nil {
		return "", err
	}
	return vm.Disasm(fr.Code()), nil
}
