package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/message"
)

func ack(id uint16) message.Packet {
	return message.Packet{Message: message.Ack{AckedID: id}, Src: 1}
}

func ackedID(t testing.TB, p message.Packet) uint16 {
	a, ok := p.Message.(message.Ack)
	require.True(t, ok, "packet=%v", p)
	return a.AckedID
}

func TestFanOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := New(Options{})
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	assert.Equal(t, 2, b.Len())
	for i := uint16(1); i <= 3; i++ {
		require.NoError(t, b.Publish(ack(i)))
	}
	for _, s := range []*Subscriber{s1, s2} {
		for i := uint16(1); i <= 3; i++ {
			p, err := s.Recv(ctx)
			require.NoError(t, err)
			assert.Equal(t, i, ackedID(t, p))
		}
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	s := b.Subscribe(message.IDNack)
	require.NoError(t, b.Publish(ack(1)))
	require.NoError(t, b.Publish(message.Packet{Message: message.Nack{NackedID: 5}}))
	p, ok := s.TryRecv()
	require.True(t, ok)
	assert.Equal(t, message.Nack{NackedID: 5}, p.Message)
	_, ok = s.TryRecv()
	assert.False(t, ok)
}

func TestLossy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := New(Options{Policy: Lossy, Capacity: 3})
	slow := b.Subscribe()
	fast := b.Subscribe()
	for i := uint16(1); i <= 5; i++ {
		require.NoError(t, b.Publish(ack(i)))
		p, err := fast.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, ackedID(t, p))
	}

	_, err := slow.Recv(ctx)
	le, ok := IsLagged(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, uint64(2), le.Missed)
	for i := uint16(3); i <= 5; i++ {
		p, err := slow.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, ackedID(t, p))
	}
	assert.Equal(t, uint64(2), slow.Lagged())
	assert.Equal(t, uint64(0), fast.Lagged())
}

func TestBlocking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := New(Options{Policy: Blocking, Capacity: 2})
	s := b.Subscribe()
	require.NoError(t, b.Publish(ack(1)))
	require.NoError(t, b.Publish(ack(2)))

	published := make(chan struct{})
	go func() {
		_ = b.Publish(ack(3))
		close(published)
	}()
	select {
	case <-published:
		t.Fatal("publisher must wait for space")
	case <-time.After(50 * time.Millisecond):
	}

	p, err := s.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), ackedID(t, p))
	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher still blocked")
	}
	for i := uint16(2); i <= 3; i++ {
		p, err := s.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, ackedID(t, p))
	}
	assert.Equal(t, uint64(0), s.Lagged())
}

func TestBlockingReleasedByClose(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"subscriber", "bus"} {
		name := name
		t.Run(name, func(t *testing.T) {
			b := New(Options{Policy: Blocking, Capacity: 1})
			s := b.Subscribe()
			require.NoError(t, b.Publish(ack(1)))
			done := make(chan error, 1)
			go func() { done <- b.Publish(ack(2)) }()
			time.Sleep(20 * time.Millisecond)
			if name == "bus" {
				b.Close()
			} else {
				s.Close()
			}
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("publisher still blocked")
			}
		})
	}
}

func TestCloseDrain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := New(Options{})
	s := b.Subscribe()
	require.NoError(t, b.Publish(ack(7)))
	b.Close()
	b.Close()
	assert.True(t, IsClosed(b.Publish(ack(8))))

	p, err := s.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), ackedID(t, p))
	_, err = s.Recv(ctx)
	assert.True(t, IsClosed(err))

	late := b.Subscribe()
	_, err = late.Recv(ctx)
	assert.True(t, IsClosed(err))
}

func TestRecvWakesOnClose(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	s := b.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Recv(context.Background())
		assert.True(t, IsClosed(err))
	}()
	time.Sleep(20 * time.Millisecond)
	b.Close()
	wg.Wait()
}

func TestRecvContext(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	s := b.Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Recv(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	b := New(Options{Policy: Blocking, Capacity: 1})
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	s1.Close()
	s1.Close()
	assert.Equal(t, 1, b.Len())
	// closed subscriber must not block publisher
	for i := uint16(0); i < 1; i++ {
		require.NoError(t, b.Publish(ack(i)))
	}
	assert.Equal(t, 1, s2.Len())
	assert.Equal(t, 0, s1.Len())
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()
	p, err := ParsePolicy("blocking")
	require.NoError(t, err)
	assert.Equal(t, Blocking, p)
	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Lossy, p)
	_, err = ParsePolicy("drop")
	assert.Error(t, err)
	assert.Equal(t, "blocking", Blocking.String())
}
