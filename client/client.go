// Package client is Ping protocol connection over any transport.
//
// One reader goroutine owns transport reads, decodes frames with
// device family vocabulary, resolves pending requests, then publishes
// every packet to subscription bus in decode order.
// Writes from any goroutine are serialized.
package client

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/sonar/bus"
	"github.com/temoto/sonar/frame"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/transport"
)

const (
	DefaultRequestTimeout = 2 * time.Second
	DefaultReadBufferSize = 16 << 10 // must fit UDP datagram with max frame
	// Ping devices reply to any dst, 0 is host
	DefaultSrcID = 0
	DefaultDstID = 0
)

type Options struct {
	Log            *log2.Log
	Family         *message.Family
	Bus            bus.Options
	RequestTimeout time.Duration
	ReadBufferSize int
	MaxPayload     int
	SrcID          uint8
	DstID          uint8
}

type State uint32

const (
	StateIdle State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

type Client struct {
	alive   *alive.Alive
	t       transport.Transport
	r       io.Reader
	w       io.Writer
	opt     Options
	bus     *bus.Bus
	dec     *frame.Decoder
	err     helpers.AtomicError
	last    atomic_clock.Clock
	stat    Stat
	state   uint32
	streams streams

	txlk sync.Mutex // serializes frames on wire

	plk     sync.Mutex
	pending []*pending // oldest first
	closed  bool
}

// New takes ownership of transport and starts reader.
func New(t transport.Transport, opt Options) (*Client, error) {
	if t == nil {
		return nil, errors.NotValidf("code error client.New transport=nil")
	}
	if opt.Family == nil {
		return nil, errors.NotValidf("code error client.New Family=nil")
	}
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = DefaultRequestTimeout
	}
	if opt.ReadBufferSize <= 0 {
		opt.ReadBufferSize = DefaultReadBufferSize
	}
	if opt.MaxPayload <= 0 {
		opt.MaxPayload = frame.DefaultMaxPayload
	}
	c := &Client{
		alive: alive.NewAlive(),
		t:     t,
		opt:   opt,
		bus:   bus.New(opt.Bus),
		dec:   frame.NewDecoder(opt.MaxPayload),
	}
	c.streams.active = make(map[uint16]struct{})
	c.r = helpers.CountReader{R: t, V: &c.stat.Recv.Bytes}
	c.w = helpers.CountWriter{W: t, V: &c.stat.Send.Bytes}
	c.last.SetNow()

	if !c.alive.Add(1) {
		return nil, ErrClosed
	}
	atomic.StoreUint32(&c.state, uint32(StateRunning))
	go c.reader()
	c.opt.Log.Debugf("client start transport=%s family=%s", t, opt.Family)
	return c, nil
}

// Close stops reader, closes transport, fails pending requests with ErrClosed.
// Blocks until reader exits.
func (c *Client) Close() error {
	_ = c.die(ErrClosed)
	c.alive.Wait()
	return nil
}

// Done is closed after reader exits.
func (c *Client) Done() <-chan struct{} { return c.alive.WaitChan() }

// Err returns reason of closing, nil while running.
func (c *Client) Err() error {
	err, _ := c.err.Load()
	return err
}

func (c *Client) Family() *message.Family      { return c.opt.Family }
func (c *Client) Options() *Options            { return &c.opt }
func (c *Client) SinceLastRecv() time.Duration { return atomic_clock.Since(&c.last) }
func (c *Client) Stat() *Stat                  { return &c.stat }
func (c *Client) State() State                 { return State(atomic.LoadUint32(&c.state)) }
func (c *Client) String() string               { return fmt.Sprintf("(%s %s)", c.opt.Family, c.t) }

// Subscribe to all packets or only ids. Subscriber must be drained or closed.
func (c *Client) Subscribe(ids ...uint16) *bus.Subscriber { return c.bus.Subscribe(ids...) }

// Send writes message without waiting for response.
func (c *Client) Send(ctx context.Context, m message.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.write(m)
}

// Request sends cmd and waits for first matching response.
// Empty expect means Ack of cmd. Nack of cmd or expected id
// returns *NackError. Timeout is Options.RequestTimeout.
func (c *Client) Request(ctx context.Context, cmd message.Message, expect ...uint16) (message.Packet, error) {
	return c.RequestTimeout(ctx, cmd, c.opt.RequestTimeout, expect...)
}

func (c *Client) RequestTimeout(ctx context.Context, cmd message.Message, timeout time.Duration, expect ...uint16) (message.Packet, error) {
	if cmd == nil {
		return message.Packet{}, errors.NotValidf("nil command")
	}
	if err := ctx.Err(); err != nil {
		return message.Packet{}, err
	}
	pd := newPending(cmd.ID(), expect)
	if err := c.register(pd); err != nil {
		return message.Packet{}, err
	}
	if err := c.write(cmd); err != nil {
		_, _, _ = c.take(pd)
		return message.Packet{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-pd.done:
		p, _, err := c.take(pd)
		return p, err

	case <-timer.C:
		if p, ok, err := c.take(pd); ok {
			return p, err
		}
		c.stat.Timeout.Add(1)
		name := c.opt.Family.Name(cmd.ID())
		c.opt.Log.Debugf("request %s timeout=%s", name, timeout)
		return message.Packet{}, errors.Timeoutf("request %s response", name)

	case <-ctx.Done():
		if p, ok, err := c.take(pd); ok {
			return p, err
		}
		return message.Packet{}, ctx.Err()
	}
}

// Get requests message id with general_request.
func (c *Client) Get(ctx context.Context, id uint16) (message.Packet, error) {
	return c.Request(ctx, message.GeneralRequest{RequestedID: id}, id)
}

// Set sends command and waits for Ack.
func (c *Client) Set(ctx context.Context, cmd message.Message) error {
	_, err := c.Request(ctx, cmd)
	return err
}

func (c *Client) write(m message.Message) error {
	payload, err := c.opt.Family.Encode(m)
	if err != nil {
		return errors.Annotate(err, "send encode")
	}
	f := frame.Frame{ID: m.ID(), Src: c.opt.SrcID, Dst: c.opt.DstID, Payload: payload}
	b, err := f.Marshal()
	if err != nil {
		return errors.Annotatef(err, "send %s", c.opt.Family.Name(m.ID()))
	}
	if c.State() == StateClosed {
		return ErrClosed
	}
	c.opt.Log.Debugf("send %s f=%s", c.opt.Family.Name(m.ID()), f.String())

	c.txlk.Lock()
	err = helpers.WriteAll(c.w, b)
	c.txlk.Unlock()
	if err != nil {
		if c.State() == StateClosed {
			return ErrClosed
		}
		err = errors.Annotatef(err, "send %s", c.opt.Family.Name(m.ID()))
		_ = c.die(err)
		return err
	}
	c.stat.Send.Register(&f)
	return nil
}

func (c *Client) reader() {
	defer c.alive.Done()
	buf := make([]byte, c.opt.ReadBufferSize)
	for {
		n, err := c.r.Read(buf)
		if n > 0 {
			c.last.SetNow()
			c.dec.Push(buf[:n])
			c.dispatch(c.decode())
		}
		if err != nil {
			if c.alive.IsRunning() {
				c.opt.Log.Errorf("read transport=%s err=%v", c.t, err)
				_ = c.die(errors.Annotate(err, "read"))
			}
			return
		}
	}
}

func (c *Client) decode() []message.Packet {
	var ps []message.Packet
	for {
		f, result := c.dec.Next()
		switch result {
		case frame.Incomplete:
			c.stat.Dropped.Set(int64(c.dec.Dropped()))
			return ps

		case frame.Invalid:
			c.stat.Resync.Add(1)
			c.opt.Log.Debugf("recv invalid data, resync")

		case frame.Complete:
			c.stat.Recv.Register(&f)
			m, err := c.opt.Family.Decode(f.ID, f.Payload)
			if err != nil {
				c.stat.Malformed.Add(1)
				c.opt.Log.Errorf("recv f=%s decode err=%v", f.String(), err)
				continue
			}
			switch m.(type) {
			case message.Unknown:
				c.stat.Unknown.Add(1)
			case message.Nack:
				c.stat.Nack.Add(1)
			}
			p := message.Packet{Message: m, Src: f.Src, Dst: f.Dst}
			if c.opt.Log.Enabled(log2.LDebug) {
				c.opt.Log.Debugf("recv %s %s", c.opt.Family.Name(f.ID), p.String())
			}
			ps = append(ps, p)
		}
	}
}

// dispatch matches whole batch under one lock so that Nack decoded
// in same read wins over success of same request.
func (c *Client) dispatch(ps []message.Packet) {
	if len(ps) == 0 {
		return
	}
	c.plk.Lock()
	for _, p := range ps {
		c.match(p)
	}
	c.plk.Unlock()

	for _, p := range ps {
		if err := c.bus.Publish(p); err != nil {
			return
		}
	}
}

func (c *Client) die(e error) error {
	if err, found := c.err.StoreOnce(e); found {
		return err
	}
	atomic.StoreUint32(&c.state, uint32(StateClosed))
	c.alive.Stop()
	_ = c.t.Close()
	c.failAll(ErrClosed)
	c.bus.Close()
	if e == ErrClosed {
		c.opt.Log.Debugf("client close transport=%s", c.t)
	} else {
		c.opt.Log.Errorf("client die transport=%s e=%v", c.t, e)
	}
	return e
}
