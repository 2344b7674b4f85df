// Package transport provides byte streams to Ping devices:
// serial line, raw Linux TTY, UDP and in-memory pipe.
package transport

import (
	"context"
	"io"
	"strings"

	"github.com/juju/errors"
)

// Transport is exclusively owned by one client.
// Read must return error (not block forever) after Close.
type Transport interface {
	io.ReadWriteCloser
	String() string
}

const (
	KindSerial = "serial"
	KindTTY    = "tty"
	KindUDP    = "udp"

	DefaultBaud = 115200
	DefaultUDP  = "192.168.2.2:9090"
)

type Config struct {
	Kind string
	Path string // serial, tty
	Baud int    // serial, tty
	Addr string // udp host:port
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Kind) {
	case KindSerial, KindTTY:
		if c.Path == "" {
			return errors.NotValidf("transport kind=%s empty path", c.Kind)
		}
		if c.Baud < 0 {
			return errors.NotValidf("transport baud=%d", c.Baud)
		}
	case KindUDP:
		if c.Addr == "" {
			return errors.NotValidf("transport kind=udp empty addr")
		}
	default:
		return errors.NotValidf("transport kind=%q", c.Kind)
	}
	return nil
}

func (c Config) String() string {
	switch strings.ToLower(c.Kind) {
	case KindUDP:
		return "udp:" + c.Addr
	default:
		return strings.ToLower(c.Kind) + ":" + c.Path
	}
}

// Open selects implementation by Config.Kind.
func Open(ctx context.Context, c Config) (Transport, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	baud := c.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	switch strings.ToLower(c.Kind) {
	case KindSerial:
		return OpenSerial(c.Path, baud)
	case KindTTY:
		return OpenTTY(c.Path, baud)
	case KindUDP:
		u, err := DialUDP(ctx, c.Addr)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	panic("code error transport kind validated")
}
