package api

// ThreadState represents the current context of the target program.
type ThreadState struct {
	// State is the thread state name: idle, running, paused, exited or
	// failed.
	State string `json:"state"`
	// Paused indicates the program is suspended and can be inspected.
	Paused bool `json:"paused"`
	// Exited indicates the program has finished.
	Exited bool `json:"exited"`
	// Failed indicates the program stopped at a runtime fault; its
	// frames remain inspectable post mortem.
	Failed bool `json:"failed"`
	// Result is the rendered value the entry function returned, filled
	// when Exited is true.
	Result string `json:"result,omitempty"`
	// Fault is the runtime fault message, filled when Failed is true.
	Fault string `json:"fault,omitempty"`
	// Backtrace is the guest call stack at the fault, filled when
	// Failed is true.
	Backtrace string `json:"backtrace,omitempty"`
	// NumFrames is the current call stack depth.
	NumFrames int `json:"numFrames"`
	// Steps is the number of instructions executed so far.
	Steps uint64 `json:"steps"`
	// CurrentFunction and CurrentLine describe the position of the
	// innermost frame, filled while frames are inspectable.
	CurrentFunction string `json:"currentFunction,omitempty"`
	CurrentLine     int    `json:"currentLine,omitempty"`

	// Filled by RPCClient.Resume, indicates an error
	Err error `json:"-"`
}

// Frame describes one activation record of the target program.
type Frame struct {
	// Index is the frame's position in the call stack, 0 being the
	// innermost.
	Index int `json:"index"`
	// Function is the name of the function the frame is executing.
	Function string `json:"function"`
	// Line is the source line the frame is positioned at.
	Line int `json:"line"`
	// PC is the index of the next instruction.
	PC uint32 `json:"pc"`
	// NumLocals, NumCells and NumFree describe the frame's slot layout:
	// fast locals first, then cells, then captured free variables.
	NumLocals int `json:"numLocals"`
	NumCells  int `json:"numCells"`
	NumFree   int `json:"numFree"`
}

// Slot kinds reported in Variable.Kind.
const (
	LocalKind = "local"
	CellKind  = "cell"
	FreeKind  = "free"
)

// GetVersionIn is the argument of the GetVersion RPC call.
type GetVersionIn struct {
}

// GetVersionOut is the result of the GetVersion RPC call.
type GetVersionOut struct {
	// SkinkVersion is the version of the server.
	SkinkVersion string `json:"skinkVersion"`
}

// Variable describes one variable of a frame.
type Variable struct {
	// Name is the declared name.
	Name string `json:"name"`
	// Kind is the slot kind: local, cell or free.
	Kind string `json:"kind"`
	// Index is the index the slot operations expect: a fast index for
	// locals, an absolute slot index for cells and free variables.
	Index int `json:"index"`
	// Type is the value's type name, empty for an unbound variable.
	Type string `json:"type,omitempty"`
	// Value is the source-literal rendering of the value, empty for an
	// unbound variable.
	Value string `json:"value,omitempty"`
	// Unbound indicates the variable currently holds no value.
	Unbound bool `json:"unbound"`
}
