package service_test

import (
	"flag"
	"os"
	"runtime"
	"strings"
	"testing"

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

func assertNoError(err error, t testing.TB, s string) {
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fname := file[strings.LastIndex(file, "/")+1:]
		t.Fatalf("failed assertion at %s:%d: %s - %s\n", fname, line, s, err)
	}
}

func withTestClient(name string, t *testing.T, fn func(c service.Client)) {
	listener, clientConn := service.ListenerPipe()
	defer listener.Close()
	fixture := sktest.BuildFixture(name)
	server := rpccommon.NewServer(&service.Config{
		Listener:  listener,
		Inspector: inspector.Config{Path: fixture.Path},
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	client := rpc2.NewClientFromConn(clientConn)
	defer client.Detach(true)

	fn(client)
}
