// Package bus multiplexes decoded packets to independent subscribers.
//
// Each subscriber has own bounded queue. When queue is full,
// Lossy policy drops oldest packet and reports LaggedError once on next Recv;
// Blocking policy makes publisher wait until subscriber takes a packet,
// the subscriber is closed or the bus is closed.
package bus

import (
	"fmt"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/sonar/message"
)

type Policy uint8

const (
	Lossy Policy = iota
	Blocking
)

func (p Policy) String() string {
	switch p {
	case Lossy:
		return "lossy"
	case Blocking:
		return "blocking"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "lossy":
		return Lossy, nil
	case "blocking":
		return Blocking, nil
	}
	return Lossy, errors.NotValidf("bus policy=%q", s)
}

const DefaultCapacity = 64

type Options struct {
	Policy   Policy
	Capacity int // default 64
}

var ErrClosed = errors.New("bus closed")

func IsClosed(err error) bool { return errors.Cause(err) == ErrClosed }

// LaggedError reports that Missed oldest packets were dropped
// since previous Recv. Subscriber remains usable.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string { return fmt.Sprintf("subscriber lagged, missed=%d", e.Missed) }

func IsLagged(err error) (*LaggedError, bool) {
	le, ok := errors.Cause(err).(*LaggedError)
	return le, ok
}

type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	opt    Options
	stop   chan struct{}
	closed bool
}

func New(opt Options) *Bus {
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	return &Bus{
		subs: make(map[*Subscriber]struct{}),
		opt:  opt,
		stop: make(chan struct{}),
	}
}

func (b *Bus) Options() Options { return b.opt }

// Subscribe never blocks. After bus Close returns subscriber
// which immediately reports ErrClosed.
// With ids, only packets of these message ids are delivered.
func (b *Bus) Subscribe(ids ...uint16) *Subscriber {
	s := newSubscriber(b, ids)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.subs[s] = struct{}{}
	}
	return s
}

// Len returns count of active subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers p to every subscriber in turn.
// Only returns error when bus is closed.
func (b *Bus) Publish(p message.Packet) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	subs := make([]*Subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if !s.wants(p) {
			continue
		}
		if !s.push(p, b.opt.Policy) && b.isClosed() {
			return ErrClosed
		}
	}
	return nil
}

// Close is idempotent. Queued packets remain available to Recv.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.stop)
	b.subs = make(map[*Subscriber]struct{})
}

func (b *Bus) isClosed() bool {
	select {
	case <-b.stop:
		return true
	default:
		return false
	}
}

func (b *Bus) remove(s *Subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}
