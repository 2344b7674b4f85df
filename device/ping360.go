package device

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/message/ping360"
)

type Ping360 struct {
	Device
}

func NewPing360(c *client.Client) Ping360 { return Ping360{Device{C: c}} }

func (d Ping360) DeviceID(ctx context.Context) (uint8, error) {
	m, err := get[ping360.DeviceID](ctx, d.C, ping360.IDDeviceID)
	return m.DeviceID, err
}

// Transducer moves head and returns samples at angle.
func (d Ping360) Transducer(ctx context.Context, t ping360.Transducer) (ping360.DeviceData, error) {
	p, err := d.C.Request(ctx, t, ping360.IDDeviceData)
	if err != nil {
		return ping360.DeviceData{}, errors.Annotate(err, "transducer")
	}
	data, ok := p.Message.(ping360.DeviceData)
	if !ok {
		return ping360.DeviceData{}, errors.Errorf("transducer unexpected response %T", p.Message)
	}
	return data, nil
}

func (d Ping360) AutoTransmit(ctx context.Context, at ping360.AutoTransmit) error {
	return d.C.Send(ctx, at)
}

func (d Ping360) MotorOff(ctx context.Context) error {
	return d.C.Set(ctx, ping360.MotorOff{})
}

func (d Ping360) Reset(ctx context.Context, bootloader bool) error {
	var v uint8
	if bootloader {
		v = 1
	}
	return d.C.Send(ctx, ping360.Reset{Bootloader: v})
}
