package service

import (
	"net"

	"github.com/go-skink/skink/service/inspector"
)

// Config provides the configuration to start an Inspector and expose it
// with a service.
type Config struct {
	// Listener is used to serve requests.
	Listener net.Listener
	// AcceptMulti configures the server to accept multiple connections.
	// Note that the server API is not reentrant and clients will have
	// to coordinate.
	AcceptMulti bool
	// DisconnectChan will be closed by the server when the client
	// disconnects.
	DisconnectChan chan<- struct{}

	// Inspector is the configuration of the inspection session itself.
	Inspector inspector.Config
}
