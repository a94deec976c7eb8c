package api

import (
	"github.com/go-skink/skink/pkg/locals"
	"github.com/go-skink/skink/pkg/vm"
)

// ConvertThreadState converts the state of a vm.Thread to an
// api.ThreadState.
func ConvertThreadState(t *vm.Thread) *ThreadState {
	s := &ThreadState{
		State:     t.State().String(),
		Paused:    t.State() == vm.Paused,
		Exited:    t.State() == vm.Exited,
		Failed:    t.State() == vm.Failed,
		NumFrames: t.NumFrames(),
		Steps:     t.Steps,
	}
	if s.Exited && t.Result() != nil {
		s.Result = t.Result().String()
	}
	if (s.Paused || s.Failed) && t.NumFrames() > 0 {
		fr := t.Frame(0)
		s.CurrentFunction = fr.Code().Name
		s.CurrentLine = int(fr.Line())
	}
	if err := t.Err(); err != nil {
		s.Fault = err.Error()
		if ee, ok := err.(*vm.EvalError); ok {
			s.Backtrace = ee.Backtrace()
		}
	}
	return s
}

// ConvertFrame converts the frame at stack index i to an api.Frame.
func ConvertFrame(i int, fr *vm.Frame) Frame {
	code := fr.Code()
	return Frame{
		Index:     i,
		Function:  code.Name,
		Line:      int(fr.Line()),
		PC:        fr.PC(),
		NumLocals: code.NumLocals(),
		NumCells:  code.NumCells(),
		NumFree:   code.NumFree(),
	}
}

// ConvertVariable converts one slot of a frame to an api.Variable. v
// may be nil for an unbound slot.
func ConvertVariable(name string, kind locals.SlotKind, index int, v vm.Value) Variable {
	av := Variable{Name: name, Kind: kind.String(), Index: index}
	if v == nil {
		av.Unbound = true
		return av
	}
	av.Type = v.Type()
	av.Value = v.String()
	return av
}
