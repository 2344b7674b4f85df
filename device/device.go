// Package device is convenience accessors over client request/response.
package device

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/message"
)

// Device has methods common to all families.
type Device struct {
	C *client.Client
}

// get requests id and checks response type.
func get[T message.Message](ctx context.Context, c *client.Client, id uint16) (T, error) {
	var zero T
	p, err := c.Get(ctx, id)
	if err != nil {
		return zero, errors.Annotatef(err, "get %s", c.Family().Name(id))
	}
	m, ok := p.Message.(T)
	if !ok {
		return zero, errors.Errorf("get %s unexpected response %T", c.Family().Name(id), p.Message)
	}
	return m, nil
}

func (d Device) ProtocolVersion(ctx context.Context) (message.ProtocolVersion, error) {
	return get[message.ProtocolVersion](ctx, d.C, message.IDProtocolVersion)
}

func (d Device) DeviceInformation(ctx context.Context) (message.DeviceInformation, error) {
	return get[message.DeviceInformation](ctx, d.C, message.IDDeviceInformation)
}

// SetDeviceID uses common set_device_id.
func (d Device) SetDeviceID(ctx context.Context, id uint8) error {
	return d.C.Set(ctx, message.SetDeviceID{DeviceID: id})
}

func (d Device) Subscribe(ids ...uint16) Subscription {
	return Subscription{d.C.Subscribe(ids...)}
}
