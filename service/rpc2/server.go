package rpc2

import (
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/api"
	"github.com/go-skink/skink/service/inspector"
)

// RPCServer exposes an inspection session over JSON-RPC. Methods that
// take a *Out reply are synchronous; Resume takes a service.RPCCallback
// and answers asynchronously so the server keeps serving requests,
// Halt among them, while the target runs.
type RPCServer struct {
	// config is all the information necessary to start the inspector and
	// server.
	config *service.Config
	// inspector is the inspection session.
	inspector *inspector.Inspector
}

// NewServer creates a new RPCServer.
func NewServer(config *service.Config, inspector *inspector.Inspector) *RPCServer {
	return &RPCServer{config, inspector}
}

type ProgramPathIn struct {
}

type ProgramPathOut struct {
	Path string
}

// ProgramPath returns the path of the program being inspected.
func (s *RPCServer) ProgramPath(arg ProgramPathIn, out *ProgramPathOut) error {
	out.Path = s.inspector.ProgramPath()
	return nil
}

type DetachIn struct {
	Halt bool
}

type DetachOut struct {
}

// Detach ends the inspection session.
func (s *RPCServer) Detach(arg DetachIn, out *DetachOut) error {
	err := s.inspector.Detach(arg.Halt)
	if s.config.DisconnectChan != nil {
		close(s.config.DisconnectChan)
		s.config.DisconnectChan = nil
	}
	return err
}

type RestartIn struct {
}

type RestartOut struct {
	State *api.ThreadState
}

// Restart reassembles the program and restarts it from the entry
// point, paused before the first instruction.
func (s *RPCServer) Restart(arg RestartIn, out *RestartOut) error {
	state, err := s.inspector.Restart()
	if err != nil {
		return err
	}
	out.State = state
	return nil
}

type StateIn struct {
}

type StateOut struct {
	State *api.ThreadState
}

// State returns the current state of the target.
func (s *RPCServer) State(arg StateIn, out *StateOut) error {
	state, err := s.inspector.State()
	if err != nil {
		return err
	}
	out.State = state
	return nil
}

type ResumeIn struct {
}

type ResumeOut struct {
	State *api.ThreadState
}

// Resume continues the target until its next pause, exit or fault. The
// callback's setup channel is closed once the target is running, so a
// Halt issued after the resume is acknowledged is guaranteed to take
// effect.
func (s *RPCServer) Resume(arg ResumeIn, cb service.RPCCallback) {
	state, err := s.inspector.Resume(cb.SetupDoneChan())
	if err != nil {
		cb.Return(nil, err)
		return
	}
	cb.Return(ResumeOut{State: state}, nil)
}

type StepIn struct {
}

type StepOut struct {
	State *api.ThreadState
}

// Step executes a single instruction of the target.
func (s *RPCServer) Step(arg StepIn, out *StepOut) error {
	state, err := s.inspector.Step()
	if err != nil {
		return err
	}
	out.State = state
	return nil
}

type HaltIn struct {
}

type HaltOut struct {
	State *api.ThreadState
}

// Halt suspends a running target at the next instruction boundary and
// returns the state it stopped in.
func (s *RPCServer) Halt(arg HaltIn, out *HaltOut) error {
	state, err := s.inspector.Halt()
	if err != nil {
		return err
	}
	out.State = state
	return nil
}

type StacktraceIn struct {
}

type StacktraceOut struct {
	Frames []api.Frame
}

// Stacktrace returns the frames of the target, innermost first.
func (s *RPCServer) Stacktrace(arg StacktraceIn, out *StacktraceOut) error {
	frames, err := s.inspector.Stacktrace()
	if err != nil {
		return err
	}
	out.Frames = frames
	return nil
}

type FrameVariablesIn struct {
	Frame int
}

type FrameVariablesOut struct {
	Variables []api.Variable
}

// FrameVariables lists every declared variable of a frame in slot
// order.
func (s *RPCServer) FrameVariables(arg FrameVariablesIn, out *FrameVariablesOut) error {
	vars, err := s.inspector.FrameVariables(arg.Frame)
	if err != nil {
		return err
	}
	out.Variables = vars
	return nil
}

type GetFastIn struct {
	Frame int
	Index int
}

type GetFastOut struct {
	Variable *api.Variable
}

// GetFast returns the value of a fast local slot of a frame.
func (s *RPCServer) GetFast(arg GetFastIn, out *GetFastOut) error {
	v, err := s.inspector.GetFast(arg.Frame, arg.Index)
	if err != nil {
		return err
	}
	out.Variable = v
	return nil
}

type SetFastIn struct {
	Frame int
	Index int
	Value string
}

type SetFastOut struct {
}

// SetFast stores a value, described by a source literal, into a fast
// local slot of a frame.
func (s *RPCServer) SetFast(arg SetFastIn, out *SetFastOut) error {
	return s.inspector.SetFast(arg.Frame, arg.Index, arg.Value)
}

type ClearFastIn struct {
	Frame int
	Index int
}

type ClearFastOut struct {
}

// ClearFast unbinds a fast local slot of a frame.
func (s *RPCServer) ClearFast(arg ClearFastIn, out *ClearFastOut) error {
	return s.inspector.ClearFast(arg.Frame, arg.Index)
}

type GetCellIn struct {
	Frame int
	Index int
}

type GetCellOut struct {
	Variable *api.Variable
}

// GetCell returns the contents of the cell in a slot of a frame.
func (s *RPCServer) GetCell(arg GetCellIn, out *GetCellOut) error {
	v, err := s.inspector.GetCell(arg.Frame, arg.Index)
	if err != nil {
		return err
	}
	out.Variable = v
	return nil
}

type SetCellIn struct {
	Frame int
	Index int
	Value string
}

type SetCellOut struct {
}

// SetCell stores a value, described by a source literal, into the cell
// in a slot of a frame.
func (s *RPCServer) SetCell(arg SetCellIn, out *SetCellOut) error {
	return s.inspector.SetCell(arg.Frame, arg.Index, arg.Value)
}

type ClearCellIn struct {
	Frame int
	Index int
}

type ClearCellOut struct {
}

// ClearCell empties the cell in a slot of a frame.
func (s *RPCServer) ClearCell(arg ClearCellIn, out *ClearCellOut) error {
	return s.inspector.ClearCell(arg.Frame, arg.Index)
}

type GetVariableIn struct {
	Frame int
	Name  string
}

type GetVariableOut struct {
	Variable *api.Variable
}

// GetVariable resolves a declared name in a frame and returns its
// value.
func (s *RPCServer) GetVariable(arg GetVariableIn, out *GetVariableOut) error {
	v, err := s.inspector.GetVariable(arg.Frame, arg.Name)
	if err != nil {
		return err
	}
	out.Variable = v
	return nil
}

type SetVariableIn struct {
	Frame int
	Name  string
	Value string
}

type SetVariableOut struct {
}

// SetVariable resolves a declared name in a frame and sets it to the
// value described by a source literal.
func (s *RPCServer) SetVariable(arg SetVariableIn, out *SetVariableOut) error {
	return s.inspector.SetVariable(arg.Frame, arg.Name, arg.Value)
}

type ClearVariableIn struct {
	Frame int
	Name  string
}

type ClearVariableOut struct {
}

// ClearVariable resolves a declared name in a frame and unbinds it.
func (s *RPCServer) ClearVariable(arg ClearVariableIn, out *ClearVariableOut) error {
	return s.inspector.ClearVariable(arg.Frame, arg.Name)
}

type DisassembleIn struct {
	Frame int
}

type DisassembleOut struct {
	Text string
}

// Disassemble lists the function executing in a frame; a negative
// frame lists the whole program.
func (s *RPCServer) Disassemble(arg DisassembleIn, out *DisassembleOut) error {
	text, err := s.inspector.Disassemble(arg.Frame)
	if err != nil {
		return err
	}
	out.Text = text
	return nil
}

type IsMulticlientIn struct {
}

type IsMulticlientOut struct {
	IsMulticlient bool
}

// IsMulticlient reports whether the server accepts multiple client
// connections.
func (s *RPCServer) IsMulticlient(arg IsMulticlientIn, out *IsMulticlientOut) error {
	out.IsMulticlient = s.config.AcceptMulti
	return nil
}
