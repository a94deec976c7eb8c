package inspector_test

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/go-skink/skink/pkg/locals"
	sktest "github.com/go-skink/skink/pkg/test"
	"github.com/go-skink/skink/service/api"
	"github.com/go-skink/skink/service/inspector"
)

func assertNoError(err error, t testing.TB, s string) {
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fname := file[strings.LastIndex(file, "/")+1:]
		t.Fatalf("failed assertion at %s:%d: %s - %s\n", fname, line, s, err)
	}
}

func withInspector(t *testing.T, fixture string, fn func(d *inspector.Inspector)) {
	fix := sktest.BuildFixture(fixture)
	d, err := inspector.New(&inspector.Config{Path: fix.Path})
	assertNoError(err, t, "New()")
	fn(d)
}

func TestNewLeavesTargetPaused(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		state, err := d.State()
		assertNoError(err, t, "State()")
		if !state.Paused || state.State != "paused" {
			t.Fatalf("expected paused state at entry, got %q", state.State)
		}
		if state.NumFrames != 1 || state.Steps != 0 {
			t.Fatalf("expected 1 untouched frame, got frames=%d steps=%d", state.NumFrames, state.Steps)
		}
	})
}

func TestResumeToPauseAndStacktrace(t *testing.T) {
	withInspector(t, "stacked", func(d *inspector.Inspector) {
		state, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")
		if !state.Paused {
			t.Fatalf("expected paused state, got %q", state.State)
		}
		frames, err := d.Stacktrace()
		assertNoError(err, t, "Stacktrace()")
		if len(frames) != 3 {
			t.Fatalf("expected 3 frames, got %d", len(frames))
		}
		for i, want := range []string{"inner", "outer", "main"} {
			if frames[i].Function != want {
				t.Errorf("frame %d: expected function %s, got %s", i, want, frames[i].Function)
			}
			if frames[i].Index != i {
				t.Errorf("frame %d: bad index %d", i, frames[i].Index)
			}
		}
	})
}

func TestFrameVariablesSlotOrder(t *testing.T) {
	withInspector(t, "scopes", func(d *inspector.Inspector) {
		_, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")
		vars, err := d.FrameVariables(0)
		assertNoError(err, t, "FrameVariables()")
		want := []api.Variable{
			{Name: "a", Kind: api.LocalKind, Index: 0, Type: "int", Value: "1"},
			{Name: "b", Kind: api.LocalKind, Index: 1, Type: "int", Value: "2"},
			{Name: "c", Kind: api.CellKind, Index: 2, Type: "int", Value: "3"},
			{Name: "d", Kind: api.FreeKind, Index: 3, Type: "int", Value: "4"},
		}
		if len(vars) != len(want) {
			t.Fatalf("expected %d variables, got %d", len(want), len(vars))
		}
		for i := range want {
			if vars[i] != want[i] {
				t.Errorf("variable %d: expected %+v, got %+v", i, want[i], vars[i])
			}
		}
	})
}

func TestFastSlotOperations(t *testing.T) {
	withInspector(t, "scopes", func(d *inspector.Inspector) {
		_, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")

		v, err := d.GetFast(0, 0)
		assertNoError(err, t, "GetFast(0, 0)")
		if v.Value != "1" {
			t.Fatalf("expected a = 1, got %s", v.Value)
		}

		assertNoError(d.SetFast(0, 1, `"hi"`), t, "SetFast(0, 1)")
		v, err = d.GetFast(0, 1)
		assertNoError(err, t, "GetFast(0, 1)")
		if v.Type != "str" || v.Value != `"hi"` {
			t.Fatalf("expected b = \"hi\", got %s %s", v.Type, v.Value)
		}

		assertNoError(d.ClearFast(0, 0), t, "ClearFast(0, 0)")
		_, err = d.GetFast(0, 0)
		if err == nil || err.Error() != "undefined variable a" {
			t.Fatalf("expected undefined variable error, got %v", err)
		}
	})
}

func TestCellSlotOperations(t *testing.T) {
	withInspector(t, "scopes", func(d *inspector.Inspector) {
		_, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")

		v, err := d.GetCell(0, 3)
		assertNoError(err, t, "GetCell(0, 3)")
		if v.Kind != api.FreeKind || v.Value != "4" {
			t.Fatalf("expected free d = 4, got %s %s", v.Kind, v.Value)
		}

		// d is shared with main's cell; main reads 40 after the write.
		assertNoError(d.SetCell(0, 3, "40"), t, "SetCell(0, 3)")
		v, err = d.GetCell(1, 0)
		assertNoError(err, t, "GetCell(1, 0)")
		if v.Value != "40" {
			t.Fatalf("expected main to see 40 through the shared cell, got %s", v.Value)
		}

		assertNoError(d.ClearCell(0, 2), t, "ClearCell(0, 2)")
		_, err = d.GetCell(0, 2)
		if err == nil || err.Error() != "undefined variable c" {
			t.Fatalf("expected undefined variable error, got %v", err)
		}
	})
}

func TestSlotIndexValidation(t *testing.T) {
	withInspector(t, "scopes", func(d *inspector.Inspector) {
		_, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")

		_, err = d.GetFast(0, 5)
		rerr, ok := err.(*locals.RangeError)
		if !ok || rerr.Op != "fast" {
			t.Fatalf("expected fast range error, got %v", err)
		}
		_, err = d.GetCell(0, 0)
		rerr, ok = err.(*locals.RangeError)
		if !ok || rerr.Op != "cell" {
			t.Fatalf("expected cell range error, got %v", err)
		}
		if err.Error() != "cell index 0 out of range [2,4)" {
			t.Fatalf("bad range error message: %s", err.Error())
		}
	})
}

func TestVariablesByName(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		state, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")
		if !state.Paused {
			t.Fatalf("expected paused state, got %q", state.State)
		}

		v, err := d.GetVariable(0, "n")
		assertNoError(err, t, "GetVariable(n)")
		if v.Kind != api.CellKind || v.Value != "0" {
			t.Fatalf("expected cell n = 0, got %s %s", v.Kind, v.Value)
		}

		assertNoError(d.SetVariable(0, "n", "41"), t, "SetVariable(n)")
		state, err = d.Resume(nil)
		assertNoError(err, t, "Resume() past the bump")
		if !state.Paused {
			t.Fatalf("expected paused state, got %q", state.State)
		}
		v, err = d.GetVariable(0, "n")
		assertNoError(err, t, "GetVariable(n) after bump")
		if v.Value != "42" {
			t.Fatalf("expected n = 42, got %s", v.Value)
		}

		state, err = d.Resume(nil)
		assertNoError(err, t, "Resume() to exit")
		if !state.Exited || state.Result != "42" {
			t.Fatalf("expected exit with result 42, got %q result %q", state.State, state.Result)
		}

		_, err = d.GetVariable(0, "zzz")
		if err == nil {
			t.Fatal("expected error for exited target")
		}
	})
}

func TestUnknownVariableName(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		_, err := d.GetVariable(0, "zzz")
		if err == nil || err.Error() != "no variable zzz in main" {
			t.Fatalf("expected lookup error, got %v", err)
		}
	})
}

func TestFrameOutOfRange(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		_, err := d.FrameVariables(5)
		if err == nil || !strings.Contains(err.Error(), "frame 5 does not exist") {
			t.Fatalf("expected frame error, got %v", err)
		}
	})
}

func TestStep(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		for i := 1; i <= 3; i++ {
			state, err := d.Step()
			assertNoError(err, t, "Step()")
			if !state.Paused || state.Steps != uint64(i) {
				t.Fatalf("step %d: state %q steps %d", i, state.State, state.Steps)
			}
		}
	})
}

func TestHaltRunningTarget(t *testing.T) {
	withInspector(t, "loop", func(d *inspector.Inspector) {
		resumed := make(chan *api.ThreadState)
		running := make(chan struct{})
		go func() {
			state, _ := d.Resume(running)
			resumed <- state
		}()
		<-running
		state, err := d.Halt()
		assertNoError(err, t, "Halt()")
		if !state.Paused {
			t.Fatalf("expected paused state after halt, got %q", state.State)
		}
		if state.NumFrames != 1 {
			t.Fatalf("expected 1 live frame, got %d", state.NumFrames)
		}
		rstate := <-resumed
		if rstate == nil || !rstate.Paused {
			t.Fatalf("expected the resuming client to observe the pause, got %+v", rstate)
		}
	})
}

func TestRestart(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		for i := 0; i < 3; i++ {
			_, err := d.Resume(nil)
			assertNoError(err, t, fmt.Sprintf("Resume() %d", i))
		}
		state, err := d.State()
		assertNoError(err, t, "State()")
		if !state.Exited {
			t.Fatalf("expected exited state, got %q", state.State)
		}

		state, err = d.Restart()
		assertNoError(err, t, "Restart()")
		if !state.Paused || state.NumFrames != 1 || state.Steps != 0 {
			t.Fatalf("expected a fresh paused target, got %+v", state)
		}
		_, err = d.Resume(nil)
		assertNoError(err, t, "Resume() after restart")
		v, err := d.GetVariable(0, "n")
		assertNoError(err, t, "GetVariable(n)")
		if v.Value != "0" {
			t.Fatalf("expected n = 0 after restart, got %s", v.Value)
		}
	})
}

func TestFaultKeepsFramesInspectable(t *testing.T) {
	withInspector(t, "fault", func(d *inspector.Inspector) {
		state, err := d.Resume(nil)
		assertNoError(err, t, "Resume()")
		if !state.Failed {
			t.Fatalf("expected failed state, got %q", state.State)
		}
		if state.Fault != "local variable x referenced before assignment" {
			t.Fatalf("bad fault message: %q", state.Fault)
		}
		if !strings.HasPrefix(state.Backtrace, "Traceback (most recent call last):") {
			t.Fatalf("bad backtrace: %q", state.Backtrace)
		}
		if state.NumFrames != 2 {
			t.Fatalf("expected 2 post-mortem frames, got %d", state.NumFrames)
		}

		vars, err := d.FrameVariables(0)
		assertNoError(err, t, "FrameVariables() post mortem")
		if len(vars) != 1 || vars[0].Name != "x" || !vars[0].Unbound {
			t.Fatalf("expected unbound x, got %+v", vars)
		}
		v, err := d.GetVariable(1, "f")
		assertNoError(err, t, "GetVariable(f) post mortem")
		if v.Type != "function" || v.Value != "<function boom>" {
			t.Fatalf("expected the boom closure, got %s %s", v.Type, v.Value)
		}
	})
}

func TestDisassemble(t *testing.T) {
	withInspector(t, "counter", func(d *inspector.Inspector) {
		text, err := d.Disassemble(-1)
		assertNoError(err, t, "Disassemble(-1)")
		for _, want := range []string{"main (params 0, locals 1, cells 1, free 0):", "incr (params 0, locals 0, cells 0, free 1):"} {
			if !strings.Contains(text, want) {
				t.Errorf("program listing is missing %q:\n%s", want, text)
			}
		}
		text, err = d.Disassemble(0)
		assertNoError(err, t, "Disassemble(0)")
		if !strings.Contains(text, "main (params 0") {
			t.Errorf("frame listing is missing main:\n%s", text)
		}
	})
}

func TestTargetOutput(t *testing.T) {
	fix := sktest.BuildFixture("arith")
	var buf bytes.Buffer
	d, err := inspector.New(&inspector.Config{Path: fix.Path, Stdout: &buf})
	assertNoError(err, t, "New()")
	state, err := d.Resume(nil)
	assertNoError(err, t, "Resume()")
	if !state.Exited {
		t.Fatalf("expected exited state, got %q", state.State)
	}
	if got := buf.String(); got != "10\n37\ndone\n" {
		t.Fatalf("bad program output: %q", got)
	}
}
