package rpc2

import (
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/api"
)

// RPCClient is a RPC service.Client.
type RPCClient struct {
	client *rpc.Client
}

// Ensure the implementation satisfies the interface.
var _ service.Client = &RPCClient{}

// NewClient creates a new RPCClient.
func NewClient(addr string) *RPCClient {
	client, err := jsonrpc.Dial("tcp", addr)
	if err != nil {
		log.Fatal("dialing:", err)
	}
	return &RPCClient{client: client}
}

// NewClientFromConn creates a new RPCClient from the given connection.
func NewClientFromConn(conn net.Conn) *RPCClient {
	return &RPCClient{client: jsonrpc.NewClient(conn)}
}

func (c *RPCClient) ProgramPath() string {
	out := new(ProgramPathOut)
	c.call("ProgramPath", ProgramPathIn{}, out)
	return out.Path
}

func (c *RPCClient) Detach(halt bool) error {
	defer c.client.Close()
	out := new(DetachOut)
	return c.call("Detach", DetachIn{halt}, out)
}

func (c *RPCClient) Restart() (*api.ThreadState, error) {
	out := new(RestartOut)
	err := c.call("Restart", RestartIn{}, out)
	return out.State, err
}

func (c *RPCClient) GetState() (*api.ThreadState, error) {
	var out StateOut
	err := c.call("State", StateIn{}, &out)
	return out.State, err
}

// Resume sends a resume request. The returned channel yields the state
// the target stopped in, with its Err field set if the request failed,
// and is closed afterwards.
func (c *RPCClient) Resume() <-chan *api.ThreadState {
	ch := make(chan *api.ThreadState)
	go func() {
		out := new(ResumeOut)
		err := c.call("Resume", ResumeIn{}, out)
		state := out.State
		if state == nil {
			state = &api.ThreadState{}
		}
		if err != nil {
			state.Err = err
		}
		ch <- state
		close(ch)
	}()
	return ch
}

func (c *RPCClient) Step() (*api.ThreadState, error) {
	var out StepOut
	err := c.call("Step", StepIn{}, &out)
	return out.State, err
}

func (c *RPCClient) Halt() (*api.ThreadState, error) {
	var out HaltOut
	err := c.call("Halt", HaltIn{}, &out)
	return out.State, err
}

func (c *RPCClient) Stacktrace() ([]api.Frame, error) {
	var out StacktraceOut
	err := c.call("Stacktrace", StacktraceIn{}, &out)
	return out.Frames, err
}

func (c *RPCClient) FrameVariables(frame int) ([]api.Variable, error) {
	var out FrameVariablesOut
	err := c.call("FrameVariables", FrameVariablesIn{frame}, &out)
	return out.Variables, err
}

func (c *RPCClient) GetFast(frame, index int) (*api.Variable, error) {
	var out GetFastOut
	err := c.call("GetFast", GetFastIn{frame, index}, &out)
	return out.Variable, err
}

func (c *RPCClient) SetFast(frame, index int, value string) error {
	return c.call("SetFast", SetFastIn{frame, index, value}, new(SetFastOut))
}

func (c *RPCClient) ClearFast(frame, index int) error {
	return c.call("ClearFast", ClearFastIn{frame, index}, new(ClearFastOut))
}

func (c *RPCClient) GetCell(frame, index int) (*api.Variable, error) {
	var out GetCellOut
	err := c.call("GetCell", GetCellIn{frame, index}, &out)
	return out.Variable, err
}

func (c *RPCClient) SetCell(frame, index int, value string) error {
	return c.call("SetCell", SetCellIn{frame, index, value}, new(SetCellOut))
}

func (c *RPCClient) ClearCell(frame, index int) error {
	return c.call("ClearCell", ClearCellIn{frame, index}, new(ClearCellOut))
}

func (c *RPCClient) GetVariable(frame int, name string) (*api.Variable, error) {
	var out GetVariableOut
	err := c.call("GetVariable", GetVariableIn{frame, name}, &out)
	return out.Variable, err
}

func (c *RPCClient) SetVariable(frame int, name, value string) error {
	return c.call("SetVariable", SetVariableIn{frame, name, value}, new(SetVariableOut))
}

func (c *RPCClient) ClearVariable(frame int, name string) error {
	return c.call("ClearVariable", ClearVariableIn{frame, name}, new(ClearVariableOut))
}

func (c *RPCClient) Disassemble(frame int) (string, error) {
	var out DisassembleOut
	err := c.call("Disassemble", DisassembleIn{frame}, &out)
	return out.Text, err
}

func (c *RPCClient) IsMulticlient() bool {
	var out IsMulticlientOut
	c.call("IsMulticlient", IsMulticlientIn{}, &out)
	return out.IsMulticlient
}

func (c *RPCClient) Disconnect(cont bool) error {
	if cont {
		out := new(ResumeOut)
		c.client.Go("RPCServer.Resume", ResumeIn{}, out, nil)
	}
	return c.client.Close()
}

// CallAPI allows calling an arbitrary rpc method (used by starlark bindings)
func (c *RPCClient) CallAPI(method string, args, reply interface{}) error {
	return c.call(method, args, reply)
}

func (c *RPCClient) call(method string, args, reply interface{}) error {
	return c.client.Call("RPCServer."+method, args, reply)
}
