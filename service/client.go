package service

import (
	"github.com/go-skink/skink/service/api"
)

// Client represents an inspector service client. All client methods are
// synchronous.
type Client interface {
	// ProgramPath returns the path of the program being inspected.
	ProgramPath() string

	// Detach disconnects from the server, optionally halting the
	// program.
	Detach(halt bool) error

	// Restart reassembles the program and restarts it from the entry
	// point, paused before the first instruction.
	Restart() (*api.ThreadState, error)

	// GetState returns the current program state.
	GetState() (*api.ThreadState, error)

	// Resume continues execution until the next pause, exit or fault.
	Resume() <-chan *api.ThreadState
	// Step executes a single instruction.
	Step() (*api.ThreadState, error)
	// Halt suspends a running program at the next instruction boundary.
	Halt() (*api.ThreadState, error)

	// Stacktrace returns the frames of the program, innermost first.
	Stacktrace() ([]api.Frame, error)
	// FrameVariables lists every variable of a frame in slot order:
	// fast locals, cells, then free variables.
	FrameVariables(frame int) ([]api.Variable, error)

	// GetFast returns the value of fast local slot index of a frame.
	GetFast(frame, index int) (*api.Variable, error)
	// SetFast stores the value described by a source literal into fast
	// local slot index of a frame.
	SetFast(frame, index int, value string) error
	// ClearFast unbinds fast local slot index of a frame.
	ClearFast(frame, index int) error
	// GetCell returns the contents of the cell in slot index of a
	// frame.
	GetCell(frame, index int) (*api.Variable, error)
	// SetCell stores the value described by a source literal into the
	// cell in slot index of a frame.
	SetCell(frame, index int, value string) error
	// ClearCell empties the cell in slot index of a frame.
	ClearCell(frame, index int) error

	// GetVariable resolves a declared name in a frame and returns its
	// value.
	GetVariable(frame int, name string) (*api.Variable, error)
	// SetVariable resolves a declared name in a frame and sets it to
	// the value described by a source literal.
	SetVariable(frame int, name, value string) error
	// ClearVariable resolves a declared name in a frame and unbinds it.
	ClearVariable(frame int, name string) error

	// Disassemble returns the listing of the function executing in a
	// frame; frame -1 lists the whole program from the entry function.
	Disassemble(frame int) (string, error)

	// IsMulticlient returns true if the headless instance is
	// multiclient.
	IsMulticlient() bool

	// Disconnect closes the connection to the server without sending a
	// Detach request first. If cont is true a resume command will be
	// sent instead.
	Disconnect(cont bool) error

	// CallAPI allows calling an arbitrary rpc method (used by starlark bindings)
	CallAPI(method string, args, reply interface{}) error
}
