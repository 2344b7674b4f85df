package transport

import (
	"context"
	"net"
	"os"
	"sync"
	"syscall"

	"github.com/juju/errors"
)

// UDP is connected socket. Each Write is one datagram,
// each Read returns one datagram, p should fit max frame.
type UDP struct {
	*net.UDPConn
	addr string
}

func DialUDP(ctx context.Context, addr string) (*UDP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "udp dial addr=%s", addr)
	}
	return &UDP{UDPConn: conn.(*net.UDPConn), addr: addr}, nil
}

// Read skips ICMP port unreachable reports which Linux delivers
// to connected UDP socket while device is not listening yet.
func (u *UDP) Read(p []byte) (int, error) {
	for {
		n, err := u.UDPConn.Read(p)
		if err != nil && isConnRefused(err) {
			continue
		}
		return n, err
	}
}

func (u *UDP) String() string { return "udp:" + u.addr }

func isConnRefused(err error) bool {
	if op, ok := err.(*net.OpError); ok {
		err = op.Err
	}
	if se, ok := err.(*os.SyscallError); ok {
		err = se.Err
	}
	return err == syscall.ECONNREFUSED
}

// ListenUDP is device side of UDP transport, used by simulator.
// Replies go to the address of last received datagram.
type ListenUDP struct {
	conn *net.UDPConn
	mu   sync.Mutex
	peer *net.UDPAddr
}

func NewListenUDP(addr string) (*ListenUDP, error) {
	la, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "udp resolve addr=%s", addr)
	}
	conn, err := net.ListenUDP("udp", la)
	if err != nil {
		return nil, errors.Annotatef(err, "udp listen addr=%s", addr)
	}
	return &ListenUDP{conn: conn}, nil
}

func (l *ListenUDP) Addr() net.Addr { return l.conn.LocalAddr() }

func (l *ListenUDP) Read(p []byte) (int, error) {
	n, from, err := l.conn.ReadFromUDP(p)
	if from != nil {
		l.mu.Lock()
		l.peer = from
		l.mu.Unlock()
	}
	return n, err
}

func (l *ListenUDP) Write(p []byte) (int, error) {
	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()
	if peer == nil {
		return 0, errors.New("udp no peer yet")
	}
	return l.conn.WriteToUDP(p, peer)
}

func (l *ListenUDP) Close() error   { return l.conn.Close() }
func (l *ListenUDP) String() string { return "udp-listen:" + l.conn.LocalAddr().String() }
