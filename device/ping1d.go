package device

import (
	"context"

	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/message/ping1d"
)

type Ping1D struct {
	Device
}

func NewPing1D(c *client.Client) Ping1D { return Ping1D{Device{C: c}} }

// SetSpeedOfSound mm/s, e.g. 343000 in air.
func (d Ping1D) SetSpeedOfSound(ctx context.Context, mmps uint32) error {
	return d.C.Set(ctx, ping1d.SetSpeedOfSound{SpeedOfSound: mmps})
}

func (d Ping1D) SpeedOfSound(ctx context.Context) (uint32, error) {
	m, err := get[ping1d.SpeedOfSound](ctx, d.C, ping1d.IDSpeedOfSound)
	return m.SpeedOfSound, err
}

// SetDeviceID uses ping1d specific set_device_id.
func (d Ping1D) SetDeviceID(ctx context.Context, id uint8) error {
	return d.C.Set(ctx, ping1d.SetDeviceID{DeviceID: id})
}

func (d Ping1D) DeviceID(ctx context.Context) (uint8, error) {
	m, err := get[ping1d.DeviceID](ctx, d.C, ping1d.IDDeviceID)
	return m.DeviceID, err
}

func (d Ping1D) SetModeAuto(ctx context.Context, auto bool) error {
	var v uint8
	if auto {
		v = 1
	}
	return d.C.Set(ctx, ping1d.SetModeAuto{ModeAuto: v})
}

func (d Ping1D) ModeAuto(ctx context.Context) (bool, error) {
	m, err := get[ping1d.ModeAuto](ctx, d.C, ping1d.IDModeAuto)
	return m.ModeAuto != 0, err
}

func (d Ping1D) SetRange(ctx context.Context, start, length uint32) error {
	return d.C.Set(ctx, ping1d.SetRange{ScanStart: start, ScanLength: length})
}

func (d Ping1D) Range(ctx context.Context) (ping1d.Range, error) {
	return get[ping1d.Range](ctx, d.C, ping1d.IDRange)
}

func (d Ping1D) SetPingInterval(ctx context.Context, ms uint16) error {
	return d.C.Set(ctx, ping1d.SetPingInterval{PingInterval: ms})
}

func (d Ping1D) SetGainSetting(ctx context.Context, gain uint8) error {
	return d.C.Set(ctx, ping1d.SetGainSetting{GainSetting: gain})
}

func (d Ping1D) GainSetting(ctx context.Context) (uint32, error) {
	m, err := get[ping1d.GainSetting](ctx, d.C, ping1d.IDGainSetting)
	return m.GainSetting, err
}

func (d Ping1D) SetPingEnable(ctx context.Context, enable bool) error {
	var v uint8
	if enable {
		v = 1
	}
	return d.C.Set(ctx, ping1d.SetPingEnable{PingEnabled: v})
}

// ProcessorTemperature in centi-degrees Celsius.
func (d Ping1D) ProcessorTemperature(ctx context.Context) (uint16, error) {
	m, err := get[ping1d.ProcessorTemperature](ctx, d.C, ping1d.IDProcessorTemperature)
	return m.ProcessorTemperature, err
}

func (d Ping1D) PcbTemperature(ctx context.Context) (uint16, error) {
	m, err := get[ping1d.PcbTemperature](ctx, d.C, ping1d.IDPcbTemperature)
	return m.PcbTemperature, err
}

// Voltage5 in mV.
func (d Ping1D) Voltage5(ctx context.Context) (uint16, error) {
	m, err := get[ping1d.Voltage5](ctx, d.C, ping1d.IDVoltage5)
	return m.Voltage5, err
}

func (d Ping1D) FirmwareVersion(ctx context.Context) (ping1d.FirmwareVersion, error) {
	return get[ping1d.FirmwareVersion](ctx, d.C, ping1d.IDFirmwareVersion)
}

func (d Ping1D) GeneralInfo(ctx context.Context) (ping1d.GeneralInfo, error) {
	return get[ping1d.GeneralInfo](ctx, d.C, ping1d.IDGeneralInfo)
}

func (d Ping1D) Distance(ctx context.Context) (ping1d.Distance, error) {
	return get[ping1d.Distance](ctx, d.C, ping1d.IDDistance)
}

func (d Ping1D) DistanceSimple(ctx context.Context) (ping1d.DistanceSimple, error) {
	return get[ping1d.DistanceSimple](ctx, d.C, ping1d.IDDistanceSimple)
}

func (d Ping1D) Profile(ctx context.Context) (ping1d.Profile, error) {
	return get[ping1d.Profile](ctx, d.C, ping1d.IDProfile)
}

func (d Ping1D) StartProfiles(ctx context.Context) error {
	return d.C.ContinuousStart(ctx, ping1d.IDProfile)
}

func (d Ping1D) StopProfiles(ctx context.Context) error {
	return d.C.ContinuousStop(ctx, ping1d.IDProfile)
}
