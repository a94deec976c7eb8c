package rpccommon

import (
	"fmt"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-skink/skink/pkg/logflags"
	"github.com/go-skink/skink/pkg/version"
	"github.com/go-skink/skink/service"
	"github.com/go-skink/skink/service/api"
	"github.com/go-skink/skink/service/inspector"
	"github.com/go-skink/skink/service/rpc2"
)

// ServerImpl implements a JSON-RPC server serving the inspector API
// over the configured listener.
type ServerImpl struct {
	// config is all the information necessary to start the inspector and
	// server.
	config *service.Config
	// listener is used to serve requests.
	listener net.Listener
	// stopChan is used to stop the listener goroutine.
	stopChan chan struct{}
	// inspector is the inspection session being served.
	inspector *inspector.Inspector
	// s2 serves the session methods.
	s2 *rpc2.RPCServer
	// methods is the map of served methods.
	methods map[string]*methodType

	log logflags.Logger
}

// RPCCallback is passed to asynchronous RPC methods; Return sends the
// method's response.
type RPCCallback struct {
	s         *ServerImpl
	sending   *sync.Mutex
	codec     rpc.ServerCodec
	req       rpc.Request
	setupDone chan struct{}
}

var _ service.RPCCallback = &RPCCallback{}

// RPCServer implements the RPC methods that do not touch the
// inspection session.
type RPCServer struct {
	s *ServerImpl
}

type methodType struct {
	method      reflect.Method
	Rcvr        reflect.Value
	ArgType     reflect.Type
	ReplyType   reflect.Type
	Synchronous bool
}

// NewServer creates a new RPCServer.
func NewServer(config *service.Config) *ServerImpl {
	return &ServerImpl{
		config:   config,
		listener: config.Listener,
		stopChan: make(chan struct{}),
		log:      logflags.RPCLogger(),
	}
}

// Run starts the inspection session and exposes it with a JSON-RPC
// server. The session can be ended with the Detach API.
func (s *ServerImpl) Run() error {
	var err error

	if s.inspector, err = inspector.New(&s.config.Inspector); err != nil {
		return err
	}

	s.s2 = rpc2.NewServer(s.config, s.inspector)

	rpcServer := &RPCServer{s}

	s.methods = make(map[string]*methodType)
	suitableMethods(s.s2, s.methods, s.log)
	suitableMethods(rpcServer, s.methods, s.log)

	go func() {
		defer s.listener.Close()
		for {
			c, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.stopChan:
					// We were supposed to exit, do nothing and return
					return
				default:
					panic(err)
				}
			}
			if !canAccept(s.listener.Addr(), c.RemoteAddr()) {
				c.Close()
				continue
			}
			go s.serveJSONCodec(c)
			if !s.config.AcceptMulti {
				break
			}
		}
	}()
	return nil
}

// Stop stops the JSON-RPC server.
func (s *ServerImpl) Stop() error {
	s.log.Debug("stopping")
	close(s.stopChan)
	if s.config.AcceptMulti {
		s.listener.Close()
	}
	return s.inspector.Detach(true)
}

// Precompute the reflect type for error. Can't use error directly
// because Typeof takes an empty interface value. This is annoying.
var typeOfError = reflect.TypeOf((*error)(nil)).Elem()

// Is this an exported - upper case - name?
func isExported(name string) bool {
	rune, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(rune)
}

// Is this type exported or a builtin?
func isExportedOrBuiltinType(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	// PkgPath will be non-empty even for an exported type,
	// so we need to check the type name as well.
	return isExported(t.Name()) || t.PkgPath() == ""
}

// Fills methods map with the methods of receiver that should be made
// available through the RPC interface.
// These are all the public methods of rcvr that have one of those
// two signatures:
//  func (rcvr ReceiverType) Method(in InputType, out *ReplyType) error
//  func (rcvr ReceiverType) Method(in InputType, cb service.RPCCallback)
func suitableMethods(rcvr interface{}, methods map[string]*methodType, log logflags.Logger) {
	typ := reflect.TypeOf(rcvr)
	rcvrv := reflect.ValueOf(rcvr)
	sname := reflect.Indirect(rcvrv).Type().Name()
	if sname == "" {
		log.Debugf("rpc.Register: no service name for type %s", typ)
		return
	}
	for m := 0; m < typ.NumMethod(); m++ {
		method := typ.Method(m)
		mname := method.Name
		mtype := method.Type
		// method must be exported
		if method.PkgPath != "" {
			continue
		}
		// Method needs three ins: (receiver, *args, *reply) or (receiver, *args, *RPCCallback)
		if mtype.NumIn() != 3 {
			log.Warnf("method %s has wrong number of ins: %d", mname, mtype.NumIn())
			continue
		}
		// First arg need not be a pointer.
		argType := mtype.In(1)
		if !isExportedOrBuiltinType(argType) {
			log.Warnf("method %s argument type not exported: %s", mname, argType)
			continue
		}

		replyType := mtype.In(2)
		synchronous := replyType.String() != "service.RPCCallback"

		if synchronous {
			// Second arg must be a pointer.
			if replyType.Kind() != reflect.Ptr {
				log.Warnf("method %s reply type not a pointer: %s", mname, replyType)
				continue
			}
			// Reply type must be exported.
			if !isExportedOrBuiltinType(replyType) {
				log.Warnf("method %s reply type not exported: %s", mname, replyType)
				continue
			}

			// Method needs one out.
			if mtype.NumOut() != 1 {
				log.Warnf("method %s has wrong number of outs: %d", mname, mtype.NumOut())
				continue
			}
			// The return type of the method must be error.
			if returnType := mtype.Out(0); returnType != typeOfError {
				log.Warnf("method %s returns %s, not error", mname, returnType.String())
				continue
			}
		} else {
			// Method needs zero outs.
			if mtype.NumOut() != 0 {
				log.Warnf("method %s has wrong number of outs: %d", mname, mtype.NumOut())
				continue
			}
		}
		methods[sname+"."+mname] = &methodType{method: method, ArgType: argType, ReplyType: replyType, Synchronous: synchronous, Rcvr: rcvrv}
	}
}

func (s *ServerImpl) serveJSONCodec(conn io.ReadWriteCloser) {
	sending := new(sync.Mutex)
	codec := jsonrpc.NewServerCodec(conn)
	var req rpc.Request
	var resp rpc.Response
	for {
		req = rpc.Request{}
		err := codec.ReadRequestHeader(&req)
		if err != nil {
			if err != io.EOF {
				s.log.Errorf("rpc: %v", err)
			}
			break
		}

		mtype, ok := s.methods[req.ServiceMethod]
		if !ok {
			s.log.Errorf("rpc: can't find method %s", req.ServiceMethod)
			continue
		}

		var argv, replyv reflect.Value

		// Decode the argument value.
		argIsValue := false // if true, need to indirect before calling.
		if mtype.ArgType.Kind() == reflect.Ptr {
			argv = reflect.New(mtype.ArgType.Elem())
		} else {
			argv = reflect.New(mtype.ArgType)
			argIsValue = true
		}
		// argv guaranteed to be a pointer now.
		if err = codec.ReadRequestBody(argv.Interface()); err != nil {
			return
		}
		if argIsValue {
			argv = argv.Elem()
		}

		if mtype.Synchronous {
			if logflags.RPC() {
				s.log.Debugf("<- %s(%T%+v)", req.ServiceMethod, argv.Interface(), argv.Interface())
			}
			replyv = reflect.New(mtype.ReplyType.Elem())
			function := mtype.method.Func
			returnValues := function.Call([]reflect.Value{mtype.Rcvr, argv, replyv})
			errInter := returnValues[0].Interface()
			errmsg := ""
			if errInter != nil {
				errmsg = errInter.(error).Error()
			}
			resp = rpc.Response{}
			if logflags.RPC() {
				s.log.Debugf("-> %T%+v error: %q", replyv.Interface(), replyv.Interface(), errmsg)
			}
			s.sendResponse(sending, &req, &resp, replyv.Interface(), codec, errmsg)
		} else {
			if logflags.RPC() {
				s.log.Debugf("(async %d) <- %s(%T%+v)", req.Seq, req.ServiceMethod, argv.Interface(), argv.Interface())
			}
			function := mtype.method.Func
			ctl := &RPCCallback{s, sending, codec, req, make(chan struct{})}
			go func() {
				defer func() {
					if ierr := recover(); ierr != nil {
						ctl.Return(nil, fmt.Errorf("internal error: %v", ierr))
					}
				}()
				function.Call([]reflect.Value{mtype.Rcvr, argv, reflect.ValueOf(ctl)})
			}()
			<-ctl.setupDone
		}
	}
	codec.Close()
}

// A value sent as a placeholder for the server's response value when the server
// receives an invalid request. It is never decoded by the client since the Response
// contains an error when it is used.
var invalidRequest = struct{}{}

func (s *ServerImpl) sendResponse(sending *sync.Mutex, req *rpc.Request, resp *rpc.Response, reply interface{}, codec rpc.ServerCodec, errmsg string) {
	resp.ServiceMethod = req.ServiceMethod
	if errmsg != "" {
		resp.Error = errmsg
		reply = invalidRequest
	}
	resp.Seq = req.Seq
	sending.Lock()
	defer sending.Unlock()
	err := codec.WriteResponse(resp, reply)
	if err != nil {
		s.log.Errorf("rpc: writing response: %v", err)
	}
}

// Return sends the response of an asynchronous method. The setup
// channel is closed first if the method never got around to it.
func (cb *RPCCallback) Return(out interface{}, err error) {
	select {
	case <-cb.setupDone:
	default:
		close(cb.setupDone)
	}
	errmsg := ""
	if err != nil {
		errmsg = err.Error()
	}
	var resp rpc.Response
	if logflags.RPC() {
		cb.s.log.Debugf("(async %d) -> %T%+v error: %q", cb.req.Seq, out, out, errmsg)
	}
	cb.s.sendResponse(cb.sending, &cb.req, &resp, out, cb.codec, errmsg)
}

// SetupDoneChan returns a channel that should be closed to signal that
// the asynchronous method has completed its setup.
func (cb *RPCCallback) SetupDoneChan() chan struct{} {
	return cb.setupDone
}

// GetVersion returns the version of the server.
func (s *RPCServer) GetVersion(args api.GetVersionIn, out *api.GetVersionOut) error {
	out.SkinkVersion = version.SkinkVersion.String()
	return nil
}
