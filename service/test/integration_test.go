package service_test

import (
	"net"
	"net/rpc/jsonrpc"
	"strings"
	"testing"
	"time"

	sktest "github.com/go-skink/skink/pkg/test"
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/api"
	"github.com/go-skink/skink/service/inspector"
	"github.com/go-skink/skink/service/rpc2"
	"github.com/go-skink/skink/service/rpccommon"
)

func TestClientServer_state(t *testing.T) {
	withTestClient("counter", t, func(c service.Client) {
		state, err := c.GetState()
		assertNoError(err, t, "GetState()")
		if !state.Paused || state.NumFrames != 1 || state.Steps != 0 {
			t.Fatalf("expected a fresh paused target, got %+v", state)
		}
		if path := c.ProgramPath(); !strings.HasSuffix(path, "counter.ska") {
			t.Fatalf("bad program path %q", path)
		}
	})
}

func TestClientServer_resumeToCompletion(t *testing.T) {
	withTestClient("arith", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}
		if !state.Exited || state.Result != "10" {
			t.Fatalf("expected exit with result 10, got %+v", state)
		}
		if _, err := c.Step(); err == nil {
			t.Fatal("expected an error stepping an exited target")
		}
	})
}

func TestClientServer_stacktrace(t *testing.T) {
	withTestClient("stacked", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}
		frames, err := c.Stacktrace()
		assertNoError(err, t, "Stacktrace()")
		if len(frames) != 3 || frames[0].Function != "inner" || frames[2].Function != "main" {
			t.Fatalf("bad stacktrace %+v", frames)
		}
		if frames[0].NumLocals != 1 {
			t.Fatalf("expected 1 local in inner, got %d", frames[0].NumLocals)
		}
	})
}

func TestClientServer_slotAccess(t *testing.T) {
	withTestClient("scopes", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}

		vars, err := c.FrameVariables(0)
		assertNoError(err, t, "FrameVariables(0)")
		names := make([]string, len(vars))
		for i, v := range vars {
			names[i] = v.Name
		}
		if strings.Join(names, " ") != "a b c d" {
			t.Fatalf("bad variable order: %v", names)
		}

		v, err := c.GetFast(0, 1)
		assertNoError(err, t, "GetFast(0, 1)")
		if v.Value != "2" {
			t.Fatalf("expected b = 2, got %s", v.Value)
		}
		assertNoError(c.SetFast(0, 1, "20"), t, "SetFast(0, 1)")
		assertNoError(c.ClearFast(0, 0), t, "ClearFast(0, 0)")
		_, err = c.GetFast(0, 0)
		if err == nil || err.Error() != "undefined variable a" {
			t.Fatalf("expected undefined variable error over the wire, got %v", err)
		}

		v, err = c.GetCell(0, 2)
		assertNoError(err, t, "GetCell(0, 2)")
		if v.Value != "3" {
			t.Fatalf("expected c = 3, got %s", v.Value)
		}
		assertNoError(c.SetCell(0, 3, "44"), t, "SetCell(0, 3)")
		v, err = c.GetCell(1, 0)
		assertNoError(err, t, "GetCell(1, 0)")
		if v.Value != "44" {
			t.Fatalf("expected main to observe 44 through the shared cell, got %s", v.Value)
		}
		assertNoError(c.ClearCell(0, 2), t, "ClearCell(0, 2)")

		_, err = c.GetFast(0, 9)
		if err == nil || err.Error() != "fast index 9 out of range [0,2)" {
			t.Fatalf("bad fast range error over the wire: %v", err)
		}
		_, err = c.GetCell(0, 0)
		if err == nil || err.Error() != "cell index 0 out of range [2,4)" {
			t.Fatalf("bad cell range error over the wire: %v", err)
		}
	})
}

func TestClientServer_variablesByName(t *testing.T) {
	withTestClient("counter", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}

		v, err := c.GetVariable(0, "n")
		assertNoError(err, t, "GetVariable(n)")
		if v.Kind != api.CellKind || v.Value != "0" {
			t.Fatalf("expected cell n = 0, got %+v", v)
		}
		assertNoError(c.SetVariable(0, "n", "41"), t, "SetVariable(n)")

		state = <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}
		v, err = c.GetVariable(0, "n")
		assertNoError(err, t, "GetVariable(n) after bump")
		if v.Value != "42" {
			t.Fatalf("expected n = 42, got %s", v.Value)
		}

		assertNoError(c.ClearVariable(0, "bump"), t, "ClearVariable(bump)")
		_, err = c.GetVariable(0, "bump")
		if err == nil || err.Error() != "undefined variable bump" {
			t.Fatalf("expected undefined variable error, got %v", err)
		}

		_, err = c.GetVariable(0, "zzz")
		if err == nil || !strings.Contains(err.Error(), "no variable zzz") {
			t.Fatalf("expected lookup error, got %v", err)
		}
	})
}

func TestClientServer_haltRunningProgram(t *testing.T) {
	withTestClient("loop", t, func(c service.Client) {
		ch := c.Resume()
		// Give the resume request time to reach the server; requests on
		// this connection are processed in order, so once it has been
		// read the halt below cannot be lost.
		time.Sleep(100 * time.Millisecond)
		state, err := c.Halt()
		assertNoError(err, t, "Halt()")
		if !state.Paused {
			t.Fatalf("expected paused state after halt, got %+v", state)
		}
		rstate := <-ch
		if rstate.Err != nil {
			t.Fatal(rstate.Err)
		}
		if !rstate.Paused {
			t.Fatalf("expected the resume to report the pause, got %+v", rstate)
		}
		v, err := c.GetVariable(0, "i")
		assertNoError(err, t, "GetVariable(i)")
		if v.Type != "int" {
			t.Fatalf("expected an int counter, got %+v", v)
		}
	})
}

func TestClientServer_restart(t *testing.T) {
	withTestClient("arith", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil || !state.Exited {
			t.Fatalf("expected exit, got %+v", state)
		}
		state, err := c.Restart()
		assertNoError(err, t, "Restart()")
		if !state.Paused || state.Steps != 0 {
			t.Fatalf("expected a fresh paused target, got %+v", state)
		}
		state = <-c.Resume()
		if state.Err != nil || !state.Exited || state.Result != "10" {
			t.Fatalf("expected a clean rerun, got %+v", state)
		}
	})
}

func TestClientServer_faultBacktrace(t *testing.T) {
	withTestClient("fault", t, func(c service.Client) {
		state := <-c.Resume()
		if state.Err != nil {
			t.Fatal(state.Err)
		}
		if !state.Failed || state.Fault != "local variable x referenced before assignment" {
			t.Fatalf("expected the unassigned-read fault, got %+v", state)
		}
		if !strings.Contains(state.Backtrace, "boom (line") {
			t.Fatalf("bad backtrace: %q", state.Backtrace)
		}

		frames, err := c.Stacktrace()
		assertNoError(err, t, "Stacktrace() post mortem")
		if len(frames) != 2 {
			t.Fatalf("expected 2 post-mortem frames, got %d", len(frames))
		}
		vars, err := c.FrameVariables(0)
		assertNoError(err, t, "FrameVariables(0) post mortem")
		if len(vars) != 1 || !vars[0].Unbound {
			t.Fatalf("expected unbound x, got %+v", vars)
		}
	})
}

func TestClientServer_disassemble(t *testing.T) {
	withTestClient("counter", t, func(c service.Client) {
		text, err := c.Disassemble(-1)
		assertNoError(err, t, "Disassemble(-1)")
		if !strings.Contains(text, "main (params 0") || !strings.Contains(text, "incr (params 0") {
			t.Fatalf("incomplete program listing:\n%s", text)
		}
		_, err = c.Disassemble(7)
		if err == nil || !strings.Contains(err.Error(), "frame 7 does not exist") {
			t.Fatalf("expected frame error, got %v", err)
		}
	})
}

func TestClientServer_multiclient(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("couldn't start listener: %s\n", err)
	}
	fixture := sktest.BuildFixture("loop")
	server := rpccommon.NewServer(&service.Config{
		Listener:    listener,
		AcceptMulti: true,
		Inspector:   inspector.Config{Path: fixture.Path},
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	c1 := rpc2.NewClient(listener.Addr().String())
	c2 := rpc2.NewClient(listener.Addr().String())
	if !c1.IsMulticlient() {
		t.Fatal("expected a multiclient server")
	}

	ch := c1.Resume()
	time.Sleep(100 * time.Millisecond)
	state, err := c2.Halt()
	assertNoError(err, t, "Halt() from the second client")
	if !state.Paused {
		t.Fatalf("expected paused state, got %+v", state)
	}
	rstate := <-ch
	if rstate.Err != nil || !rstate.Paused {
		t.Fatalf("expected the first client to observe the pause, got %+v", rstate)
	}

	if err := c1.Disconnect(false); err != nil {
		t.Fatal(err)
	}
	v, err := c2.GetVariable(0, "i")
	assertNoError(err, t, "GetVariable(i) after the other client left")
	if v.Unbound {
		t.Fatal("expected i to be bound")
	}
}

func TestClientServer_getVersion(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("couldn't start listener: %s\n", err)
	}
	fixture := sktest.BuildFixture("counter")
	server := rpccommon.NewServer(&service.Config{
		Listener:  listener,
		Inspector: inspector.Config{Path: fixture.Path},
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	client := jsonrpc.NewClient(conn)
	defer client.Close()
	var out api.GetVersionOut
	assertNoError(client.Call("RPCServer.GetVersion", api.GetVersionIn{}, &out), t, "GetVersion()")
	if !strings.HasPrefix(out.SkinkVersion, "Version: ") {
		t.Fatalf("bad version string %q", out.SkinkVersion)
	}
}
