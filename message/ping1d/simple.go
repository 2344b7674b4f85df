package ping1d

import (
	"github.com/temoto/sonar/message"
)

// SetDeviceID changes device id, valid range 1-254.
type SetDeviceID struct {
	DeviceID uint8
}

func (SetDeviceID) ID() uint16                 { return IDSetDeviceID }
func (m SetDeviceID) Encode(w *message.Writer) { w.U8(m.DeviceID) }

// SetRange sets scan range in mm, disables auto mode.
type SetRange struct {
	ScanStart  uint32
	ScanLength uint32
}

func (SetRange) ID() uint16 { return IDSetRange }
func (m SetRange) Encode(w *message.Writer) {
	w.U32(m.ScanStart)
	w.U32(m.ScanLength)
}

// SetSpeedOfSound value is mm/s, e.g. 1500000 for salt water.
type SetSpeedOfSound struct {
	SpeedOfSound uint32
}

func (SetSpeedOfSound) ID() uint16                 { return IDSetSpeedOfSound }
func (m SetSpeedOfSound) Encode(w *message.Writer) { w.U32(m.SpeedOfSound) }

type SetModeAuto struct {
	ModeAuto uint8
}

func (SetModeAuto) ID() uint16                 { return IDSetModeAuto }
func (m SetModeAuto) Encode(w *message.Writer) { w.U8(m.ModeAuto) }

// SetPingInterval is interval between pings in ms.
type SetPingInterval struct {
	PingInterval uint16
}

func (SetPingInterval) ID() uint16                 { return IDSetPingInterval }
func (m SetPingInterval) Encode(w *message.Writer) { w.U16(m.PingInterval) }

type SetGainSetting struct {
	GainSetting uint8
}

func (SetGainSetting) ID() uint16                 { return IDSetGainSetting }
func (m SetGainSetting) Encode(w *message.Writer) { w.U8(m.GainSetting) }

type SetPingEnable struct {
	PingEnabled uint8
}

func (SetPingEnable) ID() uint16                 { return IDSetPingEnable }
func (m SetPingEnable) Encode(w *message.Writer) { w.U8(m.PingEnabled) }

type GotoBootloader struct{}

func (GotoBootloader) ID() uint16               { return IDGotoBootloader }
func (GotoBootloader) Encode(w *message.Writer) {}

type DeviceID struct {
	DeviceID uint8
}

func (DeviceID) ID() uint16                 { return IDDeviceID }
func (m DeviceID) Encode(w *message.Writer) { w.U8(m.DeviceID) }

// Voltage5 is device supply voltage in mV.
type Voltage5 struct {
	Voltage5 uint16
}

func (Voltage5) ID() uint16                 { return IDVoltage5 }
func (m Voltage5) Encode(w *message.Writer) { w.U16(m.Voltage5) }

// SpeedOfSound used for distance calculations, mm/s.
type SpeedOfSound struct {
	SpeedOfSound uint32
}

func (SpeedOfSound) ID() uint16                 { return IDSpeedOfSound }
func (m SpeedOfSound) Encode(w *message.Writer) { w.U32(m.SpeedOfSound) }

type Range struct {
	ScanStart  uint32
	ScanLength uint32
}

func (Range) ID() uint16 { return IDRange }
func (m Range) Encode(w *message.Writer) {
	w.U32(m.ScanStart)
	w.U32(m.ScanLength)
}

type ModeAuto struct {
	ModeAuto uint8
}

func (ModeAuto) ID() uint16                 { return IDModeAuto }
func (m ModeAuto) Encode(w *message.Writer) { w.U8(m.ModeAuto) }

type PingInterval struct {
	PingInterval uint16
}

func (PingInterval) ID() uint16                 { return IDPingInterval }
func (m PingInterval) Encode(w *message.Writer) { w.U16(m.PingInterval) }

type GainSetting struct {
	GainSetting uint32
}

func (GainSetting) ID() uint16                 { return IDGainSetting }
func (m GainSetting) Encode(w *message.Writer) { w.U32(m.GainSetting) }

// TransmitDuration is acoustic pulse duration in microseconds.
type TransmitDuration struct {
	TransmitDuration uint16
}

func (TransmitDuration) ID() uint16                 { return IDTransmitDuration }
func (m TransmitDuration) Encode(w *message.Writer) { w.U16(m.TransmitDuration) }

// DistanceSimple distance is mm, confidence is percent.
type DistanceSimple struct {
	Distance   uint32
	Confidence uint8
}

func (DistanceSimple) ID() uint16 { return IDDistanceSimple }
func (m DistanceSimple) Encode(w *message.Writer) {
	w.U32(m.Distance)
	w.U8(m.Confidence)
}

// ProcessorTemperature is centi-degrees Celsius.
type ProcessorTemperature struct {
	ProcessorTemperature uint16
}

func (ProcessorTemperature) ID() uint16                 { return IDProcessorTemperature }
func (m ProcessorTemperature) Encode(w *message.Writer) { w.U16(m.ProcessorTemperature) }

type PcbTemperature struct {
	PcbTemperature uint16
}

func (PcbTemperature) ID() uint16                 { return IDPcbTemperature }
func (m PcbTemperature) Encode(w *message.Writer) { w.U16(m.PcbTemperature) }

type PingEnable struct {
	PingEnabled uint8
}

func (PingEnable) ID() uint16                 { return IDPingEnable }
func (m PingEnable) Encode(w *message.Writer) { w.U8(m.PingEnabled) }

// ContinuousStart asks device to emit message MessageID continuously.
type ContinuousStart struct {
	MessageID uint16
}

func (ContinuousStart) ID() uint16                 { return IDContinuousStart }
func (m ContinuousStart) Encode(w *message.Writer) { w.U16(m.MessageID) }

type ContinuousStop struct {
	MessageID uint16
}

func (ContinuousStop) ID() uint16                 { return IDContinuousStop }
func (m ContinuousStop) Encode(w *message.Writer) { w.U16(m.MessageID) }
