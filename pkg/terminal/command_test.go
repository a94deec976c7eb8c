package terminal

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-skink/skink/pkg/config"
	"github.com/go-skink/skink/pkg/logflags"
	sktest "github.com/go-skink/skink/pkg/test"
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/inspector"
	"github.com/go-skink/skink/service/rpc2"
	"github.com/go-skink/skink/service/rpccommon"
)

func TestMain(m *testing.M) {
	var logOutput string
	flag.StringVar(&logOutput, "log-output", "", "configures log output")
	flag.Parse()
	logflags.Setup(logOutput != "", logOutput, "")
	os.Exit(m.Run())
}

type FakeTerminal struct {
	*Term
	t testing.TB
}

const logCommandOutput = false

func (ft *FakeTerminal) Exec(cmdstr string) (outstr string, err error) {
	var buf bytes.Buffer
	ft.Term.stdout.pw.w = &buf
	defer func() {
		ft.Term.stdout.Flush()
		ft.Term.stdout.pw.w = os.Stdout
		outstr = buf.String()
		if logCommandOutput {
			ft.t.Logf("command %q -> %q", cmdstr, outstr)
		}
	}()
	err = ft.cmds.Call(cmdstr, ft.Term)
	return
}

func (ft *FakeTerminal) ExecStarlark(starlarkProgram string) (outstr string, err error) {
	var buf bytes.Buffer
	ft.Term.stdout.pw.w = &buf
	defer func() {
		ft.Term.stdout.Flush()
		ft.Term.stdout.pw.w = os.Stdout
		outstr = buf.String()
		if logCommandOutput {
			ft.t.Logf("source %q -> %q", starlarkProgram, outstr)
		}
	}()
	_, err = ft.Term.starlarkEnv.Execute("<stdin>", starlarkProgram, "main", nil)
	return
}

func (ft *FakeTerminal) MustExec(cmdstr string) string {
	outstr, err := ft.Exec(cmdstr)
	if err != nil {
		ft.t.Errorf("output of %q: %q", cmdstr, outstr)
		ft.t.Fatalf("Error executing <%s>: %v", cmdstr, err)
	}
	return outstr
}

func (ft *FakeTerminal) MustExecStarlark(starlarkProgram string) string {
	outstr, err := ft.ExecStarlark(starlarkProgram)
	if err != nil {
		ft.t.Errorf("output of %q: %q", starlarkProgram, outstr)
		ft.t.Fatalf("Error executing <%s>: %v", starlarkProgram, err)
	}
	return outstr
}

func (ft *FakeTerminal) AssertExec(cmdstr, tgt string) {
	out := ft.MustExec(cmdstr)
	if out != tgt {
		ft.t.Fatalf("Error executing %q, expected %q got %q", cmdstr, tgt, out)
	}
}

func (ft *FakeTerminal) AssertExecError(cmdstr, tgterr string) {
	_, err := ft.Exec(cmdstr)
	if err == nil {
		ft.t.Fatalf("Expected error executing %q", cmdstr)
	}
	if err.Error() != tgterr {
		ft.t.Fatalf("Expected error %q executing %q, got error %q", tgterr, cmdstr, err.Error())
	}
}

func withTestTerminal(name string, t testing.TB, fn func(*FakeTerminal)) {
	os.Setenv("TERM", "dumb")
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("couldn't start listener: %s\n", err)
	}
	defer listener.Close()
	server := rpccommon.NewServer(&service.Config{
		Listener:  listener,
		Inspector: inspector.Config{Path: sktest.BuildFixture(name).Path},
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	client := rpc2.NewClient(listener.Addr().String())
	defer func() {
		client.Detach(true)
	}()

	ft := &FakeTerminal{
		t:    t,
		Term: New(client, &config.Config{}),
	}
	fn(ft)
}

func TestCommandDefault(t *testing.T) {
	var (
		cmds = Commands{}
		cmd  = cmds.Find("non-existant-command")
	)

	err := cmd(nil, callContext{}, "")
	if err == nil {
		t.Fatal("cmd() did not default")
	}

	if err.Error() != "command not available" {
		t.Fatal("wrong command output")
	}
}

func TestCommandReplayWithoutPreviousCommand(t *testing.T) {
	var (
		cmds = DebugCommands(nil)
		cmd  = cmds.Find("")
		err  = cmd(nil, callContext{}, "")
	)

	if err != nil {
		t.Error("Null command not returned", err)
	}
}

func TestExecuteFile(t *testing.T) {
	stepCount := 0
	localsCount := 0
	c := &Commands{
		client: nil,
		cmds: []command{
			{aliases: []string{"step"}, cmdFn: func(t *Term, ctx callContext, args string) error {
				stepCount++
				return nil
			}},
			{aliases: []string{"locals"}, cmdFn: func(t *Term, ctx callContext, args string) error {
				localsCount++
				return nil
			}},
		},
	}

	fixturesDir := sktest.FindFixturesDir()
	err := c.executeFile(nil, filepath.Join(fixturesDir, "cmdfile"))
	if err != nil {
		t.Fatalf("executeFile: %v", err)
	}

	if stepCount != 1 || localsCount != 1 {
		t.Fatalf("Wrong counts step: %d locals: %d\n", stepCount, localsCount)
	}
}

func TestCommandAliasMerge(t *testing.T) {
	cmds := DebugCommands(nil)
	cmds.Merge(map[string][]string{"print": {"blah"}})
	// with no arguments print fails before touching the client
	if err := cmds.Find("blah")(nil, callContext{}, ""); err == nil || err == noCmdError {
		t.Fatalf("added alias does not resolve to print: %v", err)
	}
	cmds.Merge(map[string][]string{"print": {"otherblah"}})
	if err := cmds.Find("blah")(nil, callContext{}, ""); err != noCmdError {
		t.Fatal("stale alias survived a second merge")
	}
}

func TestContinueToPause(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		out := term.MustExec("continue")
		if !strings.Contains(out, "> inner()") {
			t.Fatalf("Wrong output for continue: %q", out)
		}
		if !strings.Contains(out, "=>") || !strings.Contains(out, "pause") {
			t.Fatalf("continue did not list the program around the stop: %q", out)
		}
	})
}

func TestLocals(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		term.AssertExec("locals", "a = 1\nb = 2\nc = 3\nd = 4\n")
		term.AssertExec("locals b", "b = 2\n")
		term.AssertExec("locals zzz", "(no locals)\n")
	})
}

func TestPrintSetClear(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		term.AssertExec("print a", "1\n")
		term.MustExec("set a 42")
		term.AssertExec("print a", "42\n")
		term.AssertExecError("print zzz", "no variable zzz in inner")
		term.AssertExecError("set zzz 1", "no variable zzz in inner")
		term.MustExec("clear a")
		term.AssertExec("locals a", "a = (unbound)\n")
		term.AssertExecError("print a", "undefined variable a")
		// clearing an empty slot is not an error
		term.MustExec("clear a")
	})
}

func TestSetCellSharing(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		term.MustExec("set d 40")
		// d is captured from main's cell, so the write must be visible there too
		term.AssertExec("frame 1 print d", "40\n")
	})
}

func TestStackAndFrames(t *testing.T) {
	withTestTerminal("stacked", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		out := term.MustExec("stack")
		for _, want := range []string{"* 0  inner", "  1  outer", "  2  main"} {
			if !strings.Contains(out, want) {
				t.Fatalf("missing %q in stack output: %q", want, out)
			}
		}

		out = term.MustExec("stack -full")
		for _, want := range []string{"b = 11", "a = 10", "g = <function inner>", "f = <function outer>"} {
			if !strings.Contains(out, want) {
				t.Fatalf("missing %q in stack -full output: %q", want, out)
			}
		}

		term.AssertExec("locals", "b = 11\n")
		term.AssertExec("frame 1 locals", "a = 10\ng = <function inner>\n")
		// the previous command ran on frame 1 without making it current
		term.AssertExec("locals", "b = 11\n")

		out = term.MustExec("frame 1")
		if !strings.Contains(out, "Frame 1: outer") {
			t.Fatalf("Wrong output for frame: %q", out)
		}
		term.AssertExec("locals", "a = 10\ng = <function inner>\n")
		out = term.MustExec("up")
		if !strings.Contains(out, "Frame 2: main") {
			t.Fatalf("Wrong output for up: %q", out)
		}
		out = term.MustExec("down")
		if !strings.Contains(out, "Frame 1: outer") {
			t.Fatalf("Wrong output for down: %q", out)
		}
		term.AssertExecError("frame 10", "Invalid frame 10")
		term.AssertExecError("down 10", "Invalid frame -9")

		// stepping returns from inner and resets the current frame
		term.MustExec("step")
		term.AssertExec("locals", "a = 10\ng = <function inner>\n")
	})
}

func TestStep(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		out := term.MustExec("step")
		if !strings.HasPrefix(out, "> main() ") || !strings.Contains(out, "(step 1)") {
			t.Fatalf("Wrong output for step: %q", out)
		}
	})
}

func TestContinueToExit(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		out := term.MustExec("continue")
		if !strings.Contains(out, "Program has exited with result: 10") {
			t.Fatalf("Wrong output for continue: %q", out)
		}
		term.AssertExecError("continue", "the program has exited")
	})
}

func TestRestart(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		out := term.MustExec("restart")
		if !strings.Contains(out, "Program restarted from the entry point") || !strings.Contains(out, "> main()") {
			t.Fatalf("Wrong output for restart: %q", out)
		}
		out = term.MustExec("continue")
		if !strings.Contains(out, "Program has exited with result: 10") {
			t.Fatalf("Wrong output for continue after restart: %q", out)
		}
	})
}

func TestFaultBacktrace(t *testing.T) {
	withTestTerminal("fault", t, func(term *FakeTerminal) {
		out := term.MustExec("continue")
		if !strings.Contains(out, "Traceback (most recent call last):") {
			t.Fatalf("Wrong output for continue on a faulting program: %q", out)
		}
		if !strings.Contains(out, "Error: local variable x referenced before assignment") {
			t.Fatalf("missing fault message: %q", out)
		}

		// the dead frames remain inspectable
		out = term.MustExec("stack")
		if !strings.Contains(out, "boom") {
			t.Fatalf("missing post-mortem frame: %q", out)
		}
		term.AssertExec("locals", "x = (unbound)\n")
	})
}

func TestDisassemble(t *testing.T) {
	withTestTerminal("counter", t, func(term *FakeTerminal) {
		out := term.MustExec("disassemble")
		if !strings.Contains(out, "main (params 0, locals 1, cells 1, free 0):") {
			t.Fatalf("Wrong output for disassemble: %q", out)
		}
		if strings.Contains(out, "incr (") {
			t.Fatalf("disassemble without -a listed the whole program: %q", out)
		}
		out = term.MustExec("disassemble -a")
		if !strings.Contains(out, "main (params 0") || !strings.Contains(out, "incr (params 0") {
			t.Fatalf("Wrong output for disassemble -a: %q", out)
		}
		term.AssertExecError("disassemble -banana", `wrong argument: "-banana"`)
	})
}

func TestListCommand(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		out := term.MustExec("list")
		if !strings.Contains(out, "=>") || !strings.Contains(out, "fn main") {
			t.Fatalf("Wrong output for list: %q", out)
		}
		out = term.MustExec("list 1")
		if strings.Contains(out, "=>") {
			t.Fatalf("list with a line number should not print an arrow: %q", out)
		}
		term.AssertExecError("list banana", "wrong format for list command")
	})
}

func TestConfig(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		term.MustExec("continue")

		out := term.MustExec("config -list")
		if !strings.Contains(out, "max-string-len") || !strings.Contains(out, "<not defined>") {
			t.Fatalf("Wrong output for config -list: %q", out)
		}

		term.MustExec(`set b "potato"`)
		term.AssertExec("print b", "\"potato\"\n")
		term.MustExec("config max-string-len 3")
		term.AssertExec("print b", "\"po...\n")

		err := configureSet(term.Term, "blah 1")
		if err == nil || err.Error() != `"blah" is not a configuration parameter` {
			t.Fatalf("Wrong error setting a bad parameter: %v", err)
		}

		term.MustExec("config alias print banana")
		term.AssertExec("banana a", "1\n")
	})
}

func TestTranscript(t *testing.T) {
	withTestTerminal("scopes", t, func(term *FakeTerminal) {
		term.MustExec("continue")
		fh, err := ioutil.TempFile("", "transcript-")
		if err != nil {
			t.Fatal(err)
		}
		name := fh.Name()
		fh.Close()
		defer os.Remove(name)

		term.MustExec(fmt.Sprintf("transcript %s", name))
		out := term.MustExec("locals")
		term.MustExec("transcript -off")
		term.MustExec("locals")

		buf, err := ioutil.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		if string(buf) != out {
			t.Fatalf("expected the transcript to match the command output, got %q want %q", string(buf), out)
		}
	})
}

func TestHelp(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		out := term.MustExec("help")
		for _, want := range []string{"Running the program", "Viewing program variables", "locals", "disassemble"} {
			if !strings.Contains(out, want) {
				t.Fatalf("missing %q in help output: %q", want, out)
			}
		}
		out = term.MustExec("help locals")
		if !strings.Contains(out, "Print the variables of the current frame.") {
			t.Fatalf("Wrong output for help locals: %q", out)
		}
		term.AssertExecError("help banana", "command not available")
	})
}

func TestExitCommandError(t *testing.T) {
	withTestTerminal("arith", t, func(term *FakeTerminal) {
		// -c only makes sense against an --accept-multiclient server
		term.AssertExecError("exit -c", "not connected to an --accept-multiclient server")
	})
}
