//go:build !linux
// +build !linux

package rpccommon

import "net"

func canAccept(listenAddr, remoteAddr net.Addr) bool {
	return true
}
