package service

import (
	"errors"
	"net"
	"sync"
)

// ListenerPipe returns a full-duplex in-memory connection, like
// net.Pipe, except that one end is wrapped in an object satisfying the
// net.Listener interface. The first call to the Accept method of that
// object returns a net.Conn connected to the other returned net.Conn;
// subsequent calls block until the listener is closed. It is used to
// run a client and a server in the same process without a socket.
func ListenerPipe() (net.Listener, net.Conn) {
	serverConn, clientConn := net.Pipe()
	return &pipeListener{conn: serverConn, closech: make(chan struct{})}, clientConn
}

// pipeListener accepts a single pre-established connection and then
// blocks until closed.
type pipeListener struct {
	mu       sync.Mutex
	accepted bool
	conn     net.Conn
	closech  chan struct{}
	closed   bool
}

func (l *pipeListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if !l.accepted {
		l.accepted = true
		l.mu.Unlock()
		return l.conn, nil
	}
	closech := l.closech
	l.mu.Unlock()
	<-closech
	return nil, errors.New("accept failed: listener closed")
}

func (l *pipeListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.closech)
	return nil
}

// Addr returns the listener's network address.
func (l *pipeListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
