package bus

import (
	"context"
	"sync"

	"github.com/temoto/sonar/message"
)

type Subscriber struct {
	bus      *Bus
	filter   map[uint16]struct{}
	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	ring   []message.Packet
	head   int
	n      int
	missed uint64 // since last Recv
	lagged uint64 // total
}

func newSubscriber(b *Bus, ids []uint16) *Subscriber {
	s := &Subscriber{
		bus:      b,
		ring:     make([]message.Packet, b.opt.Capacity),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if len(ids) > 0 {
		s.filter = make(map[uint16]struct{}, len(ids))
		for _, id := range ids {
			s.filter[id] = struct{}{}
		}
	}
	return s
}

func (s *Subscriber) wants(p message.Packet) bool {
	if s.filter == nil {
		return true
	}
	if p.Message == nil {
		return false
	}
	_, ok := s.filter[p.Message.ID()]
	return ok
}

// push returns false if packet was not queued because subscriber or bus closed.
func (s *Subscriber) push(p message.Packet, policy Policy) bool {
	for {
		s.mu.Lock()
		if s.isDone() {
			s.mu.Unlock()
			return false
		}
		if s.n < len(s.ring) {
			s.ring[(s.head+s.n)%len(s.ring)] = p
			s.n++
			s.mu.Unlock()
			signal(s.notEmpty)
			return true
		}
		if policy == Lossy {
			// overwrite oldest
			s.ring[s.head] = p
			s.head = (s.head + 1) % len(s.ring)
			s.missed++
			s.lagged++
			s.mu.Unlock()
			signal(s.notEmpty)
			return true
		}
		s.mu.Unlock()

		select {
		case <-s.notFull:
		case <-s.done:
			return false
		case <-s.bus.stop:
			return false
		}
	}
}

// Recv blocks until packet is available, ctx is done or
// subscription is closed and drained (ErrClosed).
// After lossy overflow returns *LaggedError once, then retained packets.
func (s *Subscriber) Recv(ctx context.Context) (message.Packet, error) {
	for {
		s.mu.Lock()
		if s.missed > 0 {
			missed := s.missed
			s.missed = 0
			s.mu.Unlock()
			return message.Packet{}, &LaggedError{Missed: missed}
		}
		if s.n > 0 {
			p := s.ring[s.head]
			s.ring[s.head] = message.Packet{}
			s.head = (s.head + 1) % len(s.ring)
			s.n--
			more := s.n > 0
			s.mu.Unlock()
			signal(s.notFull)
			if more {
				signal(s.notEmpty)
			}
			return p, nil
		}
		s.mu.Unlock()
		if s.isDone() || s.bus.isClosed() {
			// publisher may have raced with close, check queue once more
			s.mu.Lock()
			n := s.n
			s.mu.Unlock()
			if n == 0 {
				return message.Packet{}, ErrClosed
			}
			continue
		}

		select {
		case <-s.notEmpty:
		case <-s.done:
		case <-s.bus.stop:
		case <-ctx.Done():
			return message.Packet{}, ctx.Err()
		}
	}
}

// TryRecv returns false when nothing is queued.
func (s *Subscriber) TryRecv() (message.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == 0 {
		return message.Packet{}, false
	}
	p := s.ring[s.head]
	s.ring[s.head] = message.Packet{}
	s.head = (s.head + 1) % len(s.ring)
	s.n--
	signal(s.notFull)
	return p, true
}

func (s *Subscriber) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Lagged returns total count of packets dropped for this subscriber.
func (s *Subscriber) Lagged() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lagged
}

// Close unsubscribes. Blocked publisher is released.
// Queued packets remain available to Recv.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		close(s.done)
		s.bus.remove(s)
	})
}

func (s *Subscriber) isDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
