// Package mqttbridge republishes device messages to MQTT as JSON.
// Topic layout: <prefix>/<family>/<message name>, connection statistics
// go to <prefix>/<family>/stat.
package mqttbridge

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/sonar/bus"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
)

type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

type Options struct {
	Log          *log2.Log
	Prefix       string
	QoS          byte
	Retain       bool
	Streams      []uint16
	StatInterval time.Duration // 0 disables
	Stat         *Stat         // shared between reconnects, optional
}

type Stat struct {
	Published expvar.Int
	Failed    expvar.Int
	Lagged    expvar.Int
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"published":%d,"failed":%d,"lagged":%d}`, s.Published.Value(), s.Failed.Value(), s.Lagged.Value())
}

type Bridge struct {
	log  *log2.Log
	c    *client.Client
	pub  Publisher
	opt  Options
	stat *Stat
}

type Record struct {
	Time    time.Time       `json:"time"`
	Message message.Message `json:"message"`
	Name    string          `json:"name"`
	ID      uint16          `json:"id"`
	Src     uint8           `json:"src"`
	Dst     uint8           `json:"dst"`
}

func New(c *client.Client, pub Publisher, opt Options) *Bridge {
	if opt.Prefix == "" {
		opt.Prefix = "sonar"
	}
	stat := opt.Stat
	if stat == nil {
		stat = new(Stat)
	}
	return &Bridge{log: opt.Log, c: c, pub: pub, opt: opt, stat: stat}
}

func (b *Bridge) Stat() *Stat { return b.stat }

func Topic(prefix, family, name string) string {
	return strings.Join([]string{strings.TrimSuffix(prefix, "/"), family, name}, "/")
}

// StreamIDs resolves message names in family.
func StreamIDs(f *message.Family, names []string) ([]uint16, error) {
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := f.IDOf(name)
		if !ok {
			return nil, errors.NotFoundf("family=%s message=%s", f, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func Marshal(f *message.Family, p message.Packet, now time.Time) ([]byte, error) {
	id := p.ID()
	r := Record{
		Time:    now.UTC(),
		Message: p.Message,
		Name:    f.Name(id),
		ID:      id,
		Src:     p.Src,
		Dst:     p.Dst,
	}
	b, err := json.Marshal(r)
	return b, errors.Annotatef(err, "json message=%s", r.Name)
}

// Run forwards every received packet until ctx is done or connection
// closes. Configured streams are started first and stopped on return.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.c.Subscribe()
	defer sub.Close()

	started := make([]uint16, 0, len(b.opt.Streams))
	defer func() { b.stopStreams(started) }()
	for _, id := range b.opt.Streams {
		if err := b.c.ContinuousStart(ctx, id); err != nil {
			return errors.Annotate(err, "bridge")
		}
		started = append(started, id)
	}

	a := alive.NewAlive()
	defer func() {
		a.Stop()
		a.Wait()
	}()
	if b.opt.StatInterval > 0 && a.Add(1) {
		go b.statLoop(a)
	}

	for {
		p, err := sub.Recv(ctx)
		switch {
		case err == nil:
			b.forward(p)
		case ctx.Err() != nil:
			return nil
		case bus.IsClosed(err):
			if cerr := b.c.Err(); cerr != nil {
				return errors.Annotate(cerr, "bridge")
			}
			return client.ErrClosed
		default:
			if lag, ok := bus.IsLagged(err); ok {
				b.stat.Lagged.Add(int64(lag.Missed))
				b.log.Errorf("bridge %s", lag)
				continue
			}
			return errors.Annotate(err, "bridge")
		}
	}
}

func (b *Bridge) forward(p message.Packet) {
	f := b.c.Family()
	payload, err := Marshal(f, p, time.Now())
	if err != nil {
		b.stat.Failed.Add(1)
		b.log.Error(err)
		return
	}
	topic := Topic(b.opt.Prefix, f.Kind(), f.Name(p.ID()))
	b.publish(topic, payload)
}

func (b *Bridge) publish(topic string, payload []byte) {
	if err := b.pub.Publish(topic, b.opt.QoS, b.opt.Retain, payload); err != nil {
		b.stat.Failed.Add(1)
		b.log.Errorf("bridge publish topic=%s err=%v", topic, err)
		return
	}
	b.stat.Published.Add(1)
}

func (b *Bridge) statLoop(a *alive.Alive) {
	defer a.Done()
	tick := time.NewTicker(b.opt.StatInterval)
	defer tick.Stop()
	topic := Topic(b.opt.Prefix, b.c.Family().Kind(), "stat")
	stopch := a.StopChan()
	for {
		select {
		case <-tick.C:
			b.publish(topic, []byte(b.c.Stat().String()))
		case <-stopch:
			return
		}
	}
}

func (b *Bridge) stopStreams(ids []uint16) {
	if len(ids) == 0 || b.c.State() == client.StateClosed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*b.c.Options().RequestTimeout)
	defer cancel()
	for _, id := range ids {
		if err := b.c.ContinuousStop(ctx, id); err != nil {
			b.log.Errorf("bridge stop stream=%s err=%v", b.c.Family().Name(id), err)
		}
	}
}
