package client

// Values are read and modified atomically, but not consistently,
// i.e. it is possible to read .Frames=1 .Bytes=0 because Bytes has not updated yet.

import (
	"expvar"
	"fmt"

	"github.com/temoto/sonar/frame"
)

// Stat implements expvar.Var, see ping-bridge for publishing.
type Stat struct {
	Recv      Counters
	Send      Counters
	Resync    expvar.Int // corrupted regions skipped
	Dropped   expvar.Int // bytes skipped while resyncing
	Unknown   expvar.Int // frames with id not in family
	Malformed expvar.Int // known id, payload failed to decode
	Timeout   expvar.Int
	Nack      expvar.Int
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"recv":%s,"send":%s,"resync":%d,"dropped":%d,"unknown":%d,"malformed":%d,"timeout":%d,"nack":%d}`,
		s.Recv.String(), s.Send.String(),
		s.Resync.Value(), s.Dropped.Value(), s.Unknown.Value(), s.Malformed.Value(),
		s.Timeout.Value(), s.Nack.Value())
}

// Counters Bytes is raw transport traffic including garbage,
// Frames and Payload count only valid frames.
type Counters struct {
	Frames  expvar.Int
	Payload expvar.Int
	Bytes   expvar.Int
}

func (c *Counters) Register(f *frame.Frame) {
	c.Frames.Add(1)
	c.Payload.Add(int64(len(f.Payload)))
}

func (c *Counters) String() string {
	return fmt.Sprintf(`{"frames":%d,"payload":%d,"bytes":%d}`,
		c.Frames.Value(), c.Payload.Value(), c.Bytes.Value())
}
