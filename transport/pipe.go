package transport

import (
	"net"
)

type pipeEnd struct {
	net.Conn
	name string
}

func (p pipeEnd) String() string { return p.name }

// Pipe returns connected in-memory pair, host and device sides.
// Writes block until other side reads.
func Pipe() (host, device Transport) {
	a, b := net.Pipe()
	return pipeEnd{Conn: a, name: "pipe:host"}, pipeEnd{Conn: b, name: "pipe:device"}
}
