package main

import (
	"context"
	"expvar"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/config"
	"github.com/temoto/sonar/devsim"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/mqttbridge"
	"github.com/temoto/sonar/transport"
)

type openFunc func(ctx context.Context, opt client.Options) (*client.Client, error)

type runner struct {
	log     *log2.Log
	cfg     *config.Config
	pub     mqttbridge.Publisher
	open    openFunc
	ready   func()
	backoff helpers.Backoff

	bridgeStat mqttbridge.Stat
	opens      expvar.Int
	current    atomic.Value // *client.Client
	readyOnce  int32
}

func newRunner(log *log2.Log, cfg *config.Config, pub mqttbridge.Publisher) *runner {
	return &runner{
		log:     log,
		cfg:     cfg,
		pub:     pub,
		open:    openTransport(cfg.TransportConfig()),
		backoff: helpers.Backoff{Min: 100 * time.Millisecond, Max: 30 * time.Second, K: 2},
	}
}

func (r *runner) client() *client.Client {
	c, _ := r.current.Load().(*client.Client)
	return c
}

// Run reopens device connection until ctx is done.
func (r *runner) Run(ctx context.Context) error {
	for {
		if delay := r.backoff.DelayBefore(); delay > 0 {
			r.log.Infof("bridge reconnect in %v", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
		}
		err := r.once(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.IsNotValid(err) || errors.IsNotFound(err) {
			// config error, retry is useless
			return err
		}
		r.log.Errorf("bridge: %s", errors.ErrorStack(err))
		r.backoff.Failure()
	}
}

func (r *runner) once(ctx context.Context) error {
	opt, err := r.cfg.ClientOptions(r.log)
	if err != nil {
		return err
	}
	c, err := r.open(ctx, opt)
	if err != nil {
		return errors.Annotate(err, "open")
	}
	defer c.Close()
	r.opens.Add(1)
	r.current.Store(c)

	ids, err := mqttbridge.StreamIDs(c.Family(), r.cfg.Bridge.Streams)
	if err != nil {
		return err
	}
	b := mqttbridge.New(c, r.pub, mqttbridge.Options{
		Log:          r.log,
		Prefix:       r.cfg.Bridge.TopicPrefix,
		QoS:          byte(r.cfg.Bridge.QoS),
		Retain:       r.cfg.Bridge.Retain,
		Streams:      ids,
		StatInterval: time.Duration(r.cfg.Bridge.StatIntervalSec) * time.Second,
		Stat:         &r.bridgeStat,
	})
	r.backoff.Reset()
	if r.ready != nil && atomic.CompareAndSwapInt32(&r.readyOnce, 0, 1) {
		r.ready()
	}
	return b.Run(ctx)
}

func openTransport(tc transport.Config) openFunc {
	return func(ctx context.Context, opt client.Options) (*client.Client, error) {
		t, err := transport.Open(ctx, tc)
		if err != nil {
			return nil, err
		}
		c, err := client.New(t, opt)
		if err != nil {
			_ = t.Close()
			return nil, err
		}
		return c, nil
	}
}

// openSim connects to new simulated device each time, device stops with client.
func openSim(log *log2.Log) openFunc {
	return func(ctx context.Context, opt client.Options) (*client.Client, error) {
		host, dev := transport.Pipe()
		c, err := client.New(host, opt)
		if err != nil {
			return nil, err
		}
		sim := devsim.New(dev, devsim.Options{Log: log.Clone(log2.LInfo)})
		sim.Start()
		go func() {
			<-c.Done()
			_ = sim.Close()
		}()
		return c, nil
	}
}
