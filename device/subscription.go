package device

import (
	"context"

	"github.com/temoto/sonar/bus"
	"github.com/temoto/sonar/message"
)

// Subscription wraps bus subscriber with typed helpers.
type Subscription struct {
	*bus.Subscriber
}

// Collect returns next n messages, skipping lag notifications.
func (s Subscription) Collect(ctx context.Context, n int) ([]message.Message, error) {
	ms := make([]message.Message, 0, n)
	for len(ms) < n {
		p, err := s.Recv(ctx)
		if _, lagged := bus.IsLagged(err); lagged {
			continue
		}
		if err != nil {
			return ms, err
		}
		ms = append(ms, p.Message)
	}
	return ms, nil
}
