package mqttbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/config"
	"github.com/temoto/sonar/devsim"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/message/ping1d"
	"github.com/temoto/sonar/transport"
)

type mockMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type mockPublisher struct {
	mu   sync.Mutex
	msgs []mockMsg
	err  error
}

func (self *mockPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.err != nil {
		return self.err
	}
	self.msgs = append(self.msgs, mockMsg{topic: topic, payload: payload, qos: qos, retained: retained})
	return nil
}

func (self *mockPublisher) topic(topic string) []mockMsg {
	self.mu.Lock()
	defer self.mu.Unlock()
	result := make([]mockMsg, 0, len(self.msgs))
	for _, m := range self.msgs {
		if m.topic == topic {
			result = append(result, m)
		}
	}
	return result
}

func newTestEnv(t testing.TB) (*client.Client, *devsim.Device) {
	host, dev := transport.Pipe()
	c, err := client.New(host, client.Options{
		Log:            log2.NewTest(t, log2.LInfo),
		Family:         ping1d.NewFamily("ping1d"),
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	sim := devsim.New(dev, devsim.Options{Log: log2.NewTest(t, log2.LInfo), StreamInterval: 5 * time.Millisecond, Samples: 8})
	sim.Start()
	t.Cleanup(func() { _ = sim.Close() })
	return c, sim
}

func TestBridgeStreams(t *testing.T) {
	t.Parallel()
	c, sim := newTestEnv(t)
	pub := &mockPublisher{}
	ids, err := StreamIDs(c.Family(), []string{"profile"})
	require.NoError(t, err)
	b := New(c, pub, Options{
		Log:          log2.NewTest(t, log2.LDebug),
		Prefix:       "boat/",
		QoS:          1,
		Streams:      ids,
		StatInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errch := make(chan error, 1)
	go func() { errch <- b.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(pub.topic("boat/ping1d/profile")) >= 3 }, 5*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(pub.topic("boat/ping1d/stat")) >= 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-errch:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, c.IsStreaming(ping1d.IDProfile))
	assert.Empty(t, sim.Streaming())

	m := pub.topic("boat/ping1d/profile")[0]
	assert.Equal(t, byte(1), m.qos)
	assert.False(t, m.retained)
	var rec struct {
		Name    string
		ID      uint16
		Src     uint8
		Message map[string]interface{}
	}
	require.NoError(t, json.Unmarshal(m.payload, &rec))
	assert.Equal(t, "profile", rec.Name)
	assert.Equal(t, ping1d.IDProfile, rec.ID)
	assert.Equal(t, uint8(devsim.DefaultDeviceID), rec.Src)
	assert.Contains(t, rec.Message, "ProfileData")
	assert.Contains(t, rec.Message, "Confidence")

	assert.NotEmpty(t, pub.topic("boat/ping1d/ack"))
	assert.True(t, b.Stat().Published.Value() >= 4)
	assert.Equal(t, int64(0), b.Stat().Failed.Value())
}

func TestBridgePublishError(t *testing.T) {
	t.Parallel()
	c, _ := newTestEnv(t)
	pub := &mockPublisher{err: errors.New("broker down")}
	b := New(c, pub, Options{Log: log2.NewTest(t, log2.LDebug)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errch := make(chan error, 1)
	go func() { errch <- b.Run(ctx) }()

	// replies received before Run subscribes are not forwarded
	assert.Eventually(t, func() bool {
		if _, err := c.Get(ctx, ping1d.IDSpeedOfSound); err != nil {
			return false
		}
		return b.Stat().Failed.Value() >= 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(0), b.Stat().Published.Value())

	require.NoError(t, c.Close())
	select {
	case err := <-errch:
		assert.True(t, client.IsClosed(err), "err=%v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after client Close")
	}
}

func TestBridgeStreamNack(t *testing.T) {
	t.Parallel()
	host, dev := transport.Pipe()
	c, err := client.New(host, client.Options{Log: log2.NewTest(t, log2.LInfo), Family: ping1d.NewFamily("ping1d")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	sim := devsim.New(dev, devsim.Options{
		Log:  log2.NewTest(t, log2.LInfo),
		Nack: map[uint16]string{ping1d.IDContinuousStart: "busy"},
	})
	sim.Start()
	t.Cleanup(func() { _ = sim.Close() })

	b := New(c, &mockPublisher{}, Options{Log: log2.NewTest(t, log2.LDebug), Streams: []uint16{ping1d.IDProfile}})
	err = b.Run(context.Background())
	ne, ok := client.IsNack(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, "busy", ne.Reason)
}

func TestStreamIDs(t *testing.T) {
	t.Parallel()
	f := ping1d.NewFamily("ping1d")
	ids, err := StreamIDs(f, []string{"distance_simple", "profile"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{ping1d.IDDistanceSimple, ping1d.IDProfile}, ids)
	_, err = StreamIDs(f, []string{"spectrum"})
	assert.True(t, errors.IsNotFound(err))
}

func TestMarshal(t *testing.T) {
	t.Parallel()
	f := ping1d.NewFamily("ping1d")
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := Marshal(f, message.Packet{Message: ping1d.DistanceSimple{Distance: 1500, Confidence: 99}, Src: 1}, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"2020-01-02T03:04:05Z","message":{"Distance":1500,"Confidence":99},"name":"distance_simple","id":1211,"src":1,"dst":0}`, string(b))

	b, err = Marshal(f, message.Packet{Message: message.Unknown{MessageID: 4242, Payload: []byte{1}}}, now)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name":"unknown(4242)"`)
}

func TestTopicClientID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sonar/ping360/device_data", Topic("sonar", "ping360", "device_data"))
	assert.Equal(t, "fixed", ClientID(config.BridgeConfig{ClientID: "fixed"}))
	a, b := ClientID(config.BridgeConfig{}), ClientID(config.BridgeConfig{})
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^sonar-[0-9a-f-]{36}$`, a)
}
