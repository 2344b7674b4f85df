package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()
	b := Backoff{Min: time.Second, Max: 4 * time.Second, K: 2}
	assert.Equal(t, time.Duration(0), b.DelayBefore())
	b.Failure()
	d := b.DelayBefore()
	assert.True(t, d > 900*time.Millisecond && d <= time.Second, "delay=%s", d)
	b.Failure()
	b.Failure()
	b.Failure()
	d = b.DelayBefore()
	assert.True(t, d > 3*time.Second && d <= 4*time.Second, "delay=%s", d)
	b.Update(true)
	assert.Equal(t, time.Duration(0), b.DelayBefore())
}
