package client

import (
	"github.com/temoto/sonar/message"
)

// pending request slot.
// Resolution closes done once. Nack may still replace success
// until caller takes result.
type pending struct {
	resp    message.Packet
	err     error
	done    chan struct{}
	expect  []uint16
	cmd     uint16
	wantAck bool
	matched bool
	nacked  bool
	failed  bool
}

func newPending(cmd uint16, expect []uint16) *pending {
	pd := &pending{cmd: cmd, done: make(chan struct{})}
	if len(expect) == 0 {
		pd.wantAck = true
	}
	for _, id := range expect {
		if id == message.IDAck {
			pd.wantAck = true
		} else {
			pd.expect = append(pd.expect, id)
		}
	}
	return pd
}

func (pd *pending) resolved() bool { return pd.matched || pd.nacked || pd.failed }

func (pd *pending) wants(id uint16) bool {
	for _, x := range pd.expect {
		if x == id {
			return true
		}
	}
	return false
}

// nackable: Nack for command itself or for requested message.
func (pd *pending) nackable(nackedID uint16) bool {
	return nackedID == pd.cmd || pd.wants(nackedID)
}

func (pd *pending) finish() {
	select {
	case <-pd.done:
	default:
		close(pd.done)
	}
}

func (pd *pending) succeed(p message.Packet) {
	pd.resp, pd.matched = p, true
	pd.finish()
}

func (pd *pending) nack(p message.Packet, m message.Nack) {
	pd.resp, pd.err, pd.nacked = p, newNackError(pd.cmd, m), true
	pd.finish()
}

func (pd *pending) fail(err error) {
	pd.resp, pd.err, pd.failed = message.Packet{}, err, true
	pd.finish()
}

// Caller must hold Client.plk.
// Returns false when packet was not consumed by any pending request.
func (c *Client) match(p message.Packet) bool {
	switch m := p.Message.(type) {
	case message.Nack:
		// oldest waiting request first,
		// then oldest success not yet taken by caller
		for _, pd := range c.pending {
			if !pd.resolved() && pd.nackable(m.NackedID) {
				pd.nack(p, m)
				return true
			}
		}
		for _, pd := range c.pending {
			if pd.matched && pd.nackable(m.NackedID) {
				pd.matched = false
				pd.nack(p, m)
				return true
			}
		}
		return false

	case message.Ack:
		for _, pd := range c.pending {
			if !pd.resolved() && pd.wantAck && pd.cmd == m.AckedID {
				pd.succeed(p)
				return true
			}
		}
		return false
	}

	id := p.Message.ID()
	for _, pd := range c.pending {
		if !pd.resolved() && pd.wants(id) {
			pd.succeed(p)
			return true
		}
	}
	return false
}

func (c *Client) register(pd *pending) error {
	c.plk.Lock()
	defer c.plk.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.pending = append(c.pending, pd)
	return nil
}

// take removes pd and returns its result, resolved=false if none yet.
func (c *Client) take(pd *pending) (message.Packet, bool, error) {
	c.plk.Lock()
	defer c.plk.Unlock()
	for i, x := range c.pending {
		if x == pd {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	return pd.resp, pd.resolved(), pd.err
}

func (c *Client) failAll(err error) {
	c.plk.Lock()
	defer c.plk.Unlock()
	c.closed = true
	for _, pd := range c.pending {
		if !pd.resolved() {
			pd.fail(err)
		}
	}
}

// PendingLen returns count of requests waiting for response.
func (c *Client) PendingLen() int {
	c.plk.Lock()
	defer c.plk.Unlock()
	return len(c.pending)
}
