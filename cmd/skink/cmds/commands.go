package cmds

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-skink/skink/pkg/asm"
	"github.com/go-skink/skink/pkg/config"
	"github.com/go-skink/skink/pkg/logflags"
	"github.com/go-skink/skink/pkg/terminal"
	"github.com/go-skink/skink/pkg/version"
	"github.com/go-skink/skink/pkg/vm"
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/inspector"
	"github.com/go-skink/skink/service/rpc2"
	"github.com/go-skink/skink/service/rpccommon"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// headless is whether to run without terminal.
	headless bool
	// continueOnStart is whether to continue the program on startup.
	continueOnStart bool
	// acceptMulti allows multiple clients to connect to the same server.
	acceptMulti bool
	// addr is the inspection server listen address.
	addr string
	// initFile is the path to initialization file.
	initFile string

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const skinkCommandLongDesc = `Skink is a live inspector for skink assembly programs.

Skink runs a program under an inspection session: the program starts paused
before its first instruction and stops again at every pause instruction, at
exit and at faults. While it is stopped every frame of its call stack can be
examined, and every local variable slot read, written or unbound.

The goal of this tool is to provide a simple yet powerful interface for
inspecting the live state of a running program.`

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	// Config setup and load. Skipped during doc generation so that
	// generating documentation does not create a configuration file.
	if !docCall {
		conf = config.LoadConfig()
	}

	// Main skink root command.
	rootCommand = &cobra.Command{
		Use:   "skink",
		Short: "Skink is an inspector for skink assembly programs.",
		Long:  skinkCommandLongDesc,
	}

	rootCommand.PersistentFlags().StringVarP(&addr, "listen", "l", "127.0.0.1:0", "Inspection server listen address.")

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable inspection server logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'skink help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'skink help log').")

	rootCommand.PersistentFlags().BoolVarP(&headless, "headless", "", false, "Run inspection server only, in headless mode.")
	rootCommand.PersistentFlags().BoolVarP(&acceptMulti, "accept-multiclient", "", false, "Allows a headless server to accept multiple client connections.")
	rootCommand.PersistentFlags().StringVar(&initFile, "init", "", "Init file, executed by the terminal client.")

	// 'inspect' subcommand.
	inspectCommand := &cobra.Command{
		Use:   "inspect <path/to/program.ska>",
		Short: "Assemble a program and begin an inspection session.",
		Long: `Assemble a program and begin an inspection session.

The program starts paused before its first instruction. Use continue to run it
until the next pause instruction, exit or fault; while it is stopped, the
variables of every frame on the call stack can be printed, changed and
unbound.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a path to a program")
			}
			return nil
		},
		Run: inspectCmd,
	}
	inspectCommand.Flags().BoolVar(&continueOnStart, "continue", false, "Continue the inspected program on start.")
	rootCommand.AddCommand(inspectCommand)

	// 'run' subcommand.
	runCommand := &cobra.Command{
		Use:   "run <path/to/program.ska>",
		Short: "Assemble and run a program to completion.",
		Long: `Assemble and run a program to completion, without inspection.

Pause instructions do not stop the program: it is resumed immediately until
it returns from its entry function or faults. A fault prints the traceback
and exits with a non-zero status.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a path to a program")
			}
			return nil
		},
		Run: runCmd,
	}
	rootCommand.AddCommand(runCommand)

	// 'connect' subcommand.
	connectCommand := &cobra.Command{
		Use:   "connect addr",
		Short: "Connect to a headless inspection server.",
		Long:  "Connect to a running headless inspection server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide an address as the first argument")
			}
			return nil
		},
		Run: connectCmd,
	}
	rootCommand.AddCommand(connectCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Skink Inspector\n%s\n", version.SkinkVersion)
		},
	}
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	inspector	Log inspection session commands
	rpc		Log all RPC messages
	vm		Log every instruction the target executes

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.
This option will also redirect the "server listening at" message in headless
mode.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func inspectCmd(cmd *cobra.Command, args []string) {
	os.Exit(execute(args[0], conf))
}

func runCmd(cmd *cobra.Command, args []string) {
	os.Exit(run(args[0]))
}

func run(path string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	program, err := asm.AssembleFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	t := vm.NewThread(path)
	state, err := t.Run(program)
	for err == nil && state == vm.Paused {
		state, err = t.Resume()
	}
	if err != nil {
		if ee, ok := err.(*vm.EvalError); ok {
			fmt.Fprintln(os.Stderr, ee.Backtrace())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func connectCmd(cmd *cobra.Command, args []string) {
	addr := args[0]
	if addr == "" {
		fmt.Fprint(os.Stderr, "An empty address was provided. You must provide an address as the first argument.\n")
		os.Exit(1)
	}
	os.Exit(connect(addr, nil, conf))
}

// waitForDisconnectSignal is a blocking function that waits for either
// a SIGINT (Ctrl-C) signal from the OS or for disconnectChan to be closed
// by the server when the client disconnects.
func waitForDisconnectSignal(disconnectChan chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	select {
	case <-ch:
	case <-disconnectChan:
	}
}

func connect(addr string, clientConn net.Conn, conf *config.Config) int {
	// Create and start a terminal - attach to running instance
	var client *rpc2.RPCClient
	if clientConn != nil {
		client = rpc2.NewClientFromConn(clientConn)
	} else {
		client = rpc2.NewClient(addr)
	}
	term := terminal.New(client, conf)
	term.InitFile = initFile
	status, err := term.Run()
	if err != nil {
		fmt.Println(err)
	}
	return status
}

func execute(path string, conf *config.Config) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	if headless && (initFile != "") {
		fmt.Fprint(os.Stderr, "Warning: init file ignored with --headless\n")
	}
	if continueOnStart {
		if !headless {
			fmt.Fprint(os.Stderr, "Error: --continue only works with --headless; use an init file\n")
			return 1
		}
		if !acceptMulti {
			fmt.Fprint(os.Stderr, "Error: --continue requires --accept-multiclient\n")
			return 1
		}
	}

	if !headless && acceptMulti {
		fmt.Fprint(os.Stderr, "Warning accept-multi: ignored\n")
		// acceptMulti won't work in normal (non-headless) mode because we
		// always call server.Stop after the terminal client exits.
		acceptMulti = false
	}

	var listener net.Listener
	var clientConn net.Conn
	var err error

	// Make a TCP listener, unless the client is in the same process.
	if headless {
		listener, err = net.Listen("tcp", addr)
	} else {
		listener, clientConn = service.ListenerPipe()
	}
	if err != nil {
		fmt.Printf("couldn't start listener: %s\n", err)
		return 1
	}
	defer listener.Close()

	disconnectChan := make(chan struct{})

	// Create and start an inspection server
	server := rpccommon.NewServer(&service.Config{
		Listener:       listener,
		AcceptMulti:    acceptMulti,
		DisconnectChan: disconnectChan,
		Inspector: inspector.Config{
			Path: path,
		},
	})

	if err := server.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var status int
	if headless {
		logflags.WriteAPIListeningMessage(listener.Addr())
		if continueOnStart {
			client := rpc2.NewClient(listener.Addr().String())
			client.Disconnect(true) // true = continue after disconnect
		}
		waitForDisconnectSignal(disconnectChan)
		err = server.Stop()
		if err != nil {
			fmt.Println(err)
		}

		return status
	}

	return connect(listener.Addr().String(), clientConn, conf)
}
