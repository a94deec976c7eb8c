// Package terminal implements functions for responding to user
// input and dispatching to appropriate backend commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/api"
)

type callContext struct {
	// Frame is the stack frame commands operate on, 0 being the
	// innermost.
	Frame int
}

type frameDirection int

const (
	frameSet frameDirection = iota
	frameUp
	frameDown
)

type cmdfunc func(t *Term, ctx callContext, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands for the skink terminal process.
type Commands struct {
	cmds   []command
	client service.Client
	frame  int // Current frame as set by frame/up/down commands.
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands(client service.Client) *Commands {
	c := &Commands{client: client}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"continue", "c"}, group: runCmds, cmdFn: c.cont, helpMsg: `Run until the next pause, exit or fault of the program.

	continue

The target runs until it executes a pause instruction, returns from its entry function or faults. Use Ctrl-C to stop a program that does not pause on its own.`},
		{aliases: []string{"step", "s"}, group: runCmds, cmdFn: c.step, helpMsg: `Single step the program, executing one instruction.`},
		{aliases: []string{"restart", "r"}, group: runCmds, cmdFn: c.restart, helpMsg: `Restart the program from the entry point.

	restart

The program file is reassembled, so edits made to it are picked up.`},
		{aliases: []string{"list", "ls", "l"}, cmdFn: listCommand, helpMsg: `Show program listing.

	[frame <m>] list [<line>]

Show the program around the current line, or the provided line.`},
		{aliases: []string{"stack", "bt"}, group: stackCmds, cmdFn: c.stackCommand, helpMsg: `Print stack trace.

	stack [-full]

	-full		every stack frame is decorated with its variables.`},
		{aliases: []string{"frame"},
			group: stackCmds,
			cmdFn: func(t *Term, ctx callContext, arg string) error {
				return c.frameCommand(t, ctx, arg, frameSet)
			},
			helpMsg: `Set the current frame, or execute command on a different frame.

	frame <m>
	frame <m> <command>

The first form sets frame used by subsequent commands such as "print" or "set".
The second form runs the command on the given frame.`},
		{aliases: []string{"up"},
			group: stackCmds,
			cmdFn: func(t *Term, ctx callContext, arg string) error {
				return c.frameCommand(t, ctx, arg, frameUp)
			},
			helpMsg: `Move the current frame up.

	up [<m>]
	up [<m>] <command>

Move the current frame up by <m>. The second form runs the command on the given frame.`},
		{aliases: []string{"down"},
			group: stackCmds,
			cmdFn: func(t *Term, ctx callContext, arg string) error {
				return c.frameCommand(t, ctx, arg, frameDown)
			},
			helpMsg: `Move the current frame down.

	down [<m>]
	down [<m>] <command>

Move the current frame down by <m>. The second form runs the command on the given frame.`},
		{aliases: []string{"locals"}, group: dataCmds, cmdFn: c.locals, helpMsg: `Print the variables of the current frame.

	[frame <m>] locals [<filter>]

Fast locals are listed first, then cells, then captured free variables. Slots that currently hold no value are reported as unbound.`},
		{aliases: []string{"print", "p"}, group: dataCmds, cmdFn: c.printVar, helpMsg: `Print the value of a variable.

	[frame <m>] print <name>

The name is resolved among the fast locals, cells and free variables of the frame.`},
		{aliases: []string{"set"}, group: dataCmds, cmdFn: c.setVar, helpMsg: `Changes the value of a variable.

	[frame <m>] set <name> <value>

The value is written as a program literal: an integer, a float, a quoted string, true, false or none.`},
		{aliases: []string{"clear"}, group: dataCmds, cmdFn: c.clearVar, helpMsg: `Unbind a variable.

	[frame <m>] clear <name>

The variable's slot is emptied, as if it had never been assigned. A program that reads it afterwards faults; clearing an empty slot is a no-op.`},
		{aliases: []string{"disassemble", "disasm"}, cmdFn: c.disassCommand, helpMsg: `Disassembler.

	[frame <m>] disassemble [-a]

Lists the function executing in the current frame. With -a the whole program is listed, starting from the entry function.`},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of skink commands

	source <path>

If path ends with the .star extension it will be interpreted as a starlark script. See Documentation/cli/starlark.md for the syntax.

If path is a single '-' character an interactive starlark interpreter will start instead. Type 'exit' to exit.`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter.

	config substitute-path <from> <to>
	config substitute-path <from>

Adds or removes a path substitution rule.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"transcript"}, cmdFn: transcript, helpMsg: `Appends command output to a file.

	transcript [-t] [-x] <output file>
	transcript -off

Output of the following commands is appended to the specified output file. If '-t' is specified the file is truncated first. If '-x' is specified output to stdout is suppressed instead.

Using the -off option disables the transcript.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the inspector.

	exit [-c]

When connected to a headless instance started with the --accept-multiclient, pass -c to resume the execution of the target process before disconnecting.`},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			v.cmdFn = cf
			return
		}
	}

	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
// If the command is an empty string it will replay the last command.
func (c *Commands) Find(cmdstr string) cmdfunc {
	// If <enter> use last command, if there was one.
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

// CallWithContext takes a command and a context that command should be executed in.
func (c *Commands) CallWithContext(cmdstr string, t *Term, ctx callContext) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, ctx, args)
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	ctx := callContext{Frame: c.frame}
	return c.CallWithContext(cmdstr, t, ctx)
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var noCmdError = errors.New("command not available")

func noCmdAvailable(t *Term, ctx callContext, args string) error {
	return noCmdError
}

func nullCommand(t *Term, ctx callContext, args string) error {
	return nil
}

func (c *Commands) help(t *Term, ctx callContext, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return noCmdError
	}

	t.stdout.pw.PageMaybe(nil)

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func split2PartsBySpace(s string) []string {
	v := strings.SplitN(s, " ", 2)
	for i, _ := range v {
		v[i] = strings.TrimSpace(v[i])
	}
	return v
}

func (c *Commands) cont(t *Term, ctx callContext, args string) error {
	if args != "" {
		return errors.New("wrong number of arguments")
	}
	c.frame = 0
	stateChan := t.client.Resume()
	var state *api.ThreadState
	for state = range stateChan {
		if state.Err != nil {
			return state.Err
		}
		printcontext(t, state)
	}
	if state.Paused {
		printfile(t, state.CurrentLine, true)
	}
	return nil
}

func (c *Commands) step(t *Term, ctx callContext, args string) error {
	if args != "" {
		return errors.New("wrong number of arguments")
	}
	c.frame = 0
	state, err := t.client.Step()
	if err != nil {
		return err
	}
	printcontext(t, state)
	if state.Paused {
		printfile(t, state.CurrentLine, true)
	}
	return nil
}

func (c *Commands) restart(t *Term, ctx callContext, args string) error {
	if args != "" {
		return errors.New("wrong number of arguments")
	}
	c.frame = 0
	state, err := t.client.Restart()
	if err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, "Program restarted from the entry point")
	printcontext(t, state)
	return nil
}

// Handle "frame", "up", "down" commands.
func (c *Commands) frameCommand(t *Term, ctx callContext, argstr string, direction frameDirection) error {
	frame := 1
	arg := ""
	if len(argstr) == 0 {
		if direction == frameSet {
			return errors.New("not enough arguments")
		}
	} else {
		args := split2PartsBySpace(argstr)
		var err error
		if frame, err = strconv.Atoi(args[0]); err != nil {
			return err
		}
		if len(args) > 1 {
			arg = args[1]
		}
	}
	switch direction {
	case frameUp:
		frame = c.frame + frame
	case frameDown:
		frame = c.frame - frame
	}
	if len(arg) > 0 {
		ctx.Frame = frame
		return c.CallWithContext(arg, t, ctx)
	}
	if frame < 0 {
		return fmt.Errorf("Invalid frame %d", frame)
	}
	frames, err := t.client.Stacktrace()
	if err != nil {
		return err
	}
	if frame >= len(frames) {
		return fmt.Errorf("Invalid frame %d", frame)
	}
	c.frame = frame
	fmt.Fprintf(t.stdout, "Frame %d: %s (line %d)\n", frame, frames[frame].Function, frames[frame].Line)
	printfile(t, frames[frame].Line, true)
	return nil
}

func (c *Commands) stackCommand(t *Term, ctx callContext, args string) error {
	full := false
	switch args {
	case "":
	case "-full":
		full = true
	default:
		return fmt.Errorf("wrong argument: %q", args)
	}
	t.stdout.pw.PageMaybe(nil)
	frames, err := t.client.Stacktrace()
	if err != nil {
		return err
	}
	for i := range frames {
		fr := &frames[i]
		prefix := "  "
		if fr.Index == c.frame {
			prefix = "* "
		}
		fmt.Fprintf(t.stdout, "%s%d  %s (line %d, pc %d)\n", prefix, fr.Index, fr.Function, fr.Line, fr.PC)
		if full {
			vars, err := t.client.FrameVariables(fr.Index)
			if err != nil {
				return err
			}
			for j := range vars {
				fmt.Fprintf(t.stdout, "       %s\n", t.formatVariable(&vars[j]))
			}
		}
	}
	return nil
}

func (c *Commands) locals(t *Term, ctx callContext, args string) error {
	vars, err := t.client.FrameVariables(ctx.Frame)
	if err != nil {
		return err
	}
	match := false
	for i := range vars {
		if args != "" && !strings.Contains(vars[i].Name, args) {
			continue
		}
		match = true
		fmt.Fprintln(t.stdout, t.formatVariable(&vars[i]))
	}
	if !match {
		fmt.Fprintln(t.stdout, "(no locals)")
	}
	return nil
}

func (c *Commands) printVar(t *Term, ctx callContext, args string) error {
	if len(args) == 0 {
		return fmt.Errorf("not enough arguments")
	}
	v, err := t.client.GetVariable(ctx.Frame, args)
	if err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, t.formatValue(v.Value))
	return nil
}

func (c *Commands) setVar(t *Term, ctx callContext, args string) error {
	v := split2PartsBySpace(args)
	if len(v) != 2 || v[0] == "" || v[1] == "" {
		return fmt.Errorf("wrong number of arguments: set <name> <value>")
	}
	return t.client.SetVariable(ctx.Frame, v[0], v[1])
}

func (c *Commands) clearVar(t *Term, ctx callContext, args string) error {
	if len(args) == 0 {
		return fmt.Errorf("not enough arguments")
	}
	return t.client.ClearVariable(ctx.Frame, args)
}

func (t *Term) formatVariable(v *api.Variable) string {
	if v.Unbound {
		return fmt.Sprintf("%s = (unbound)", v.Name)
	}
	return fmt.Sprintf("%s = %s", v.Name, t.formatValue(v.Value))
}

func (t *Term) formatValue(val string) string {
	if t.conf != nil && t.conf.MaxStringLen != nil && len(val) > *t.conf.MaxStringLen {
		val = val[:*t.conf.MaxStringLen] + "..."
	}
	return val
}

func listCommand(t *Term, ctx callContext, args string) error {
	t.stdout.pw.PageMaybe(nil)
	if len(args) == 0 {
		state, err := t.client.GetState()
		if err != nil {
			return err
		}
		if state.Exited {
			return errors.New("the program has exited")
		}
		line := state.CurrentLine
		if ctx.Frame != 0 {
			frames, err := t.client.Stacktrace()
			if err != nil {
				return err
			}
			if ctx.Frame < 0 || ctx.Frame >= len(frames) {
				return fmt.Errorf("Invalid frame %d", ctx.Frame)
			}
			line = frames[ctx.Frame].Line
		}
		return printfile(t, line, true)
	}

	lineno, err := strconv.Atoi(args)
	if err != nil {
		return fmt.Errorf("wrong format for list command")
	}
	return printfile(t, lineno, false)
}

func (c *Commands) disassCommand(t *Term, ctx callContext, args string) error {
	frame := ctx.Frame
	switch args {
	case "":
	case "-a":
		frame = -1
	default:
		return fmt.Errorf("wrong argument: %q", args)
	}
	t.stdout.pw.PageMaybe(nil)
	text, err := t.client.Disassemble(frame)
	if err != nil {
		return err
	}
	fmt.Fprint(t.stdout, text)
	return nil
}

func (c *Commands) sourceCommand(t *Term, ctx callContext, args string) error {
	if len(args) == 0 {
		return fmt.Errorf("wrong number of arguments: source <filename>")
	}

	if filepath.Ext(args) == ".star" {
		_, err := t.starlarkEnv.Execute(args, nil, "main", nil)
		return err
	}

	if args == "-" {
		return t.starlarkEnv.REPL()
	}

	return c.executeFile(t, args)
}

func printcontext(t *Term, state *api.ThreadState) {
	switch {
	case state.Exited:
		fmt.Fprintf(t.stdout, "Program has exited with result: %s\n", state.Result)
	case state.Failed:
		fmt.Fprintln(t.stdout, state.Backtrace)
	case state.Paused:
		t.Println("> ", fmt.Sprintf("%s() %s:%d (step %d)", state.CurrentFunction, t.formatPath(t.client.ProgramPath()), state.CurrentLine, state.Steps))
	}
}

// Number of lines listed before and after the current one by printfile.
const sourceListLineCount = 5

func printfile(t *Term, line int, showArrow bool) error {
	path := t.client.ProgramPath()
	if path == "" {
		return nil
	}

	arrowLine := 0
	if showArrow {
		arrowLine = line
	}

	file, err := os.Open(t.substitutePath(path))
	if err != nil {
		return err
	}
	defer file.Close()

	return t.stdout.ColorizePrint(path, file, line-sourceListLineCount, line+sourceListLineCount+1, arrowLine)
}

// ExitRequestError is returned when the user
// exits the terminal.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, ctx callContext, args string) error {
	if args == "-c" {
		if !t.client.IsMulticlient() {
			return errors.New("not connected to an --accept-multiclient server")
		}
		t.quitContinue = true
	}
	return ExitRequestError{}
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}

func transcript(t *Term, ctx callContext, args string) error {
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return err
	}
	if len(v) != 1 {
		return fmt.Errorf("illegal commandline '%s'", args)
	}

	truncate := false
	fileOnly := false
	disable := false
	path := ""
	for _, arg := range v[0] {
		switch arg {
		case "-t":
			truncate = true
		case "-x":
			fileOnly = true
		case "-off":
			disable = true
		default:
			if len(arg) > 0 && arg[0] == '-' {
				return fmt.Errorf("unrecognized option %q", arg)
			}
			path = arg
		}
	}

	if disable {
		if path != "" {
			return errors.New("-off can not be used with a file path")
		}
		return t.stdout.CloseTranscript()
	}

	if path == "" {
		return errors.New("no file path specified")
	}

	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if truncate {
		flags |= os.O_TRUNC
	}
	fh, err := os.OpenFile(path, flags, 0660)
	if err != nil {
		return err
	}
	t.stdout.TranscribeTo(fh, fileOnly)
	return nil
}
