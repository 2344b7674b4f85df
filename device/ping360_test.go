package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/frame"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/message/ping360"
	"github.com/temoto/sonar/transport"
)

// answers transducer with one sample per angle, acks motor_off
func ping360Responder(tr transport.Transport) {
	fam := ping360.NewFamily()
	dec := frame.NewDecoder(0)
	buf := make([]byte, 1024)
	for {
		n, err := tr.Read(buf)
		dec.Push(buf[:n])
		for {
			f, r := dec.Next()
			if r == frame.Incomplete {
				break
			}
			if r != frame.Complete {
				continue
			}
			m, _ := fam.Decode(f.ID, f.Payload)
			var resp message.Message
			switch cmd := m.(type) {
			case ping360.Transducer:
				resp = ping360.DeviceData{Mode: cmd.Mode, Angle: cmd.Angle, NumberOfSamples: 1, Data: []byte{byte(cmd.Angle)}}
			case ping360.MotorOff:
				resp = message.Ack{AckedID: ping360.IDMotorOff}
			case message.GeneralRequest:
				resp = ping360.DeviceID{DeviceID: 2}
			default:
				continue
			}
			fr := message.NewFrame(resp, 2, 0)
			b, _ := fr.Marshal()
			if helpers.WriteAll(tr, b) != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func TestPing360(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	host, dev := transport.Pipe()
	go ping360Responder(dev)
	c, err := client.New(host, client.Options{
		Log:            log2.NewTest(t, log2.LInfo),
		Family:         ping360.NewFamily(),
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer c.Close()
	d := NewPing360(c)

	for _, angle := range []uint16{0, 100, 399} {
		data, err := d.Transducer(ctx, ping360.Transducer{Mode: 1, Angle: angle, NumberOfSamples: 1, Transmit: 1})
		require.NoError(t, err)
		assert.Equal(t, angle, data.Angle)
		assert.Equal(t, []byte{byte(angle)}, data.Data)
	}
	id, err := d.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), id)
	require.NoError(t, d.MotorOff(ctx))
}
