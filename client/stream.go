package client

import (
	"context"
	"sort"
	"sync"

	"github.com/juju/errors"
)

// streams is set of message ids device emits continuously.
// Changed only after device Ack.
type streams struct {
	mu     sync.Mutex
	active map[uint16]struct{}
}

func (s *streams) set(id uint16, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.active[id] = struct{}{}
	} else {
		delete(s.active, id)
	}
}

// ContinuousStart asks device to emit message id without request.
// Subscribe before start to not miss first messages.
// Nack or timeout leaves stream state unchanged.
func (c *Client) ContinuousStart(ctx context.Context, id uint16) error {
	cmd, err := c.opt.Family.StartCommand(id)
	if err != nil {
		return err
	}
	if _, err = c.Request(ctx, cmd); err != nil {
		return errors.Annotatef(err, "continuous start %s", c.opt.Family.Name(id))
	}
	c.streams.set(id, true)
	c.opt.Log.Debugf("continuous start %s", c.opt.Family.Name(id))
	return nil
}

// ContinuousStop is always sent to device, even if id is not known as active,
// because device may stream from previous session.
func (c *Client) ContinuousStop(ctx context.Context, id uint16) error {
	cmd, err := c.opt.Family.StopCommand(id)
	if err != nil {
		return err
	}
	if _, err = c.Request(ctx, cmd); err != nil {
		return errors.Annotatef(err, "continuous stop %s", c.opt.Family.Name(id))
	}
	c.streams.set(id, false)
	c.opt.Log.Debugf("continuous stop %s", c.opt.Family.Name(id))
	return nil
}

// Streaming returns active ids ascending.
func (c *Client) Streaming() []uint16 {
	c.streams.mu.Lock()
	defer c.streams.mu.Unlock()
	ids := make([]uint16, 0, len(c.streams.active))
	for id := range c.streams.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

func (c *Client) IsStreaming(id uint16) bool {
	c.streams.mu.Lock()
	defer c.streams.mu.Unlock()
	_, ok := c.streams.active[id]
	return ok
}
