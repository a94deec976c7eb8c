//go:build linux
// +build linux

package rpccommon

import (
	"fmt"
	"net"
	"testing"
)

const procNetTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:0FC8 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 249859 1 0000000000000000 100 0 0 10 0
   1: 0100007F:A3F2 0100007F:0FC8 01 00000000:00000000 00:00000000 00000000  1000        0 249922 1 0000000000000000 20 4 30 10 -1
`

func withProcNetTCP(t *testing.T, testuid int, fn func()) {
	oldReadFile, oldUID := readFile, uid
	defer func() {
		readFile, uid = oldReadFile, oldUID
	}()
	readFile = func(name string) ([]byte, error) {
		if name != "/proc/net/tcp" {
			return nil, fmt.Errorf("unexpected file %s", name)
		}
		return []byte(procNetTCP), nil
	}
	uid = testuid
	fn()
}

func TestSameUserForRemoteAddr(t *testing.T) {
	remote := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0xA3F2}

	withProcNetTCP(t, 1000, func() {
		same, err := sameUserForRemoteAddr(remote)
		if err != nil {
			t.Fatal(err)
		}
		if !same {
			t.Error("expected the connection to belong to uid 1000")
		}
	})

	withProcNetTCP(t, 0, func() {
		same, err := sameUserForRemoteAddr(remote)
		if err != nil {
			t.Fatal(err)
		}
		if same {
			t.Error("expected a different user")
		}
	})
}

func TestSameUserUnknownConnection(t *testing.T) {
	withProcNetTCP(t, 1000, func() {
		remote := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0x1234}
		_, err := sameUserForRemoteAddr(remote)
		if _, ok := err.(*errConnectionNotFound); !ok {
			t.Fatalf("expected connection-not-found error, got %v", err)
		}
	})
}
