// Package ping360 defines messages of Ping360 scanning sonar.
// Ping360 has no continuous start/stop, data is requested per angle
// with Transducer or streamed after AutoTransmit.
package ping360

import (
	"github.com/temoto/sonar/message"
)

const (
	IDDeviceID       uint16 = 2000
	IDDeviceData     uint16 = 2300
	IDAutoDeviceData uint16 = 2301
	IDReset          uint16 = 2600
	IDTransducer     uint16 = 2601
	IDAutoTransmit   uint16 = 2602
	IDMotorOff       uint16 = 2903
)

const Kind = "ping360"

func NewFamily() *message.Family {
	return message.NewFamily(Kind, nil, Definitions()...)
}

func Definitions() []message.Definition {
	return []message.Definition{
		{ID: IDDeviceID, Name: "device_id", Decode: func(r *message.Reader) message.Message {
			return DeviceID{DeviceID: r.U8(), Reserved: r.U8()}
		}},
		{ID: IDDeviceData, Name: "device_data", Decode: decodeDeviceData},
		{ID: IDAutoDeviceData, Name: "auto_device_data", Decode: decodeAutoDeviceData},
		{ID: IDReset, Name: "reset", Decode: func(r *message.Reader) message.Message {
			return Reset{Bootloader: r.U8(), Reserved: r.U8()}
		}},
		{ID: IDTransducer, Name: "transducer", Decode: decodeTransducer},
		{ID: IDAutoTransmit, Name: "auto_transmit", Decode: decodeAutoTransmit},
		{ID: IDMotorOff, Name: "motor_off", Decode: func(r *message.Reader) message.Message { return MotorOff{} }},
	}
}

type DeviceID struct {
	DeviceID uint8
	Reserved uint8
}

func (DeviceID) ID() uint16 { return IDDeviceID }
func (m DeviceID) Encode(w *message.Writer) {
	w.U8(m.DeviceID)
	w.U8(m.Reserved)
}

// DeviceData is response to Transducer, one angle worth of samples.
// Angle unit is gradian (400 per turn), durations in microseconds,
// SamplePeriod in 25ns ticks, TransmitFrequency in kHz.
type DeviceData struct {
	Data              []byte
	Mode              uint8
	GainSetting       uint8
	Angle             uint16
	TransmitDuration  uint16
	SamplePeriod      uint16
	TransmitFrequency uint16
	NumberOfSamples   uint16
}

func (DeviceData) ID() uint16 { return IDDeviceData }
func (m DeviceData) Encode(w *message.Writer) {
	w.U8(m.Mode)
	w.U8(m.GainSetting)
	w.U16(m.Angle)
	w.U16(m.TransmitDuration)
	w.U16(m.SamplePeriod)
	w.U16(m.TransmitFrequency)
	w.U16(m.NumberOfSamples)
	w.Vector(m.Data)
}
func decodeDeviceData(r *message.Reader) message.Message {
	return DeviceData{
		Mode:              r.U8(),
		GainSetting:       r.U8(),
		Angle:             r.U16(),
		TransmitDuration:  r.U16(),
		SamplePeriod:      r.U16(),
		TransmitFrequency: r.U16(),
		NumberOfSamples:   r.U16(),
		Data:              r.Vector(),
	}
}

// AutoDeviceData is emitted by device in auto transmit mode.
type AutoDeviceData struct {
	Data              []byte
	Mode              uint8
	GainSetting       uint8
	Angle             uint16
	TransmitDuration  uint16
	SamplePeriod      uint16
	TransmitFrequency uint16
	StartAngle        uint16
	StopAngle         uint16
	NumSteps          uint8
	Delay             uint8
	NumberOfSamples   uint16
}

func (AutoDeviceData) ID() uint16 { return IDAutoDeviceData }
func (m AutoDeviceData) Encode(w *message.Writer) {
	w.U8(m.Mode)
	w.U8(m.GainSetting)
	w.U16(m.Angle)
	w.U16(m.TransmitDuration)
	w.U16(m.SamplePeriod)
	w.U16(m.TransmitFrequency)
	w.U16(m.StartAngle)
	w.U16(m.StopAngle)
	w.U8(m.NumSteps)
	w.U8(m.Delay)
	w.U16(m.NumberOfSamples)
	w.Vector(m.Data)
}
func decodeAutoDeviceData(r *message.Reader) message.Message {
	return AutoDeviceData{
		Mode:              r.U8(),
		GainSetting:       r.U8(),
		Angle:             r.U16(),
		TransmitDuration:  r.U16(),
		SamplePeriod:      r.U16(),
		TransmitFrequency: r.U16(),
		StartAngle:        r.U16(),
		StopAngle:         r.U16(),
		NumSteps:          r.U8(),
		Delay:             r.U8(),
		NumberOfSamples:   r.U16(),
		Data:              r.Vector(),
	}
}

type Reset struct {
	Bootloader uint8
	Reserved   uint8
}

func (Reset) ID() uint16 { return IDReset }
func (m Reset) Encode(w *message.Writer) {
	w.U8(m.Bootloader)
	w.U8(m.Reserved)
}

// Transducer moves head to Angle and optionally transmits (Transmit=1),
// device answers with DeviceData.
type Transducer struct {
	Mode              uint8
	GainSetting       uint8
	Angle             uint16
	TransmitDuration  uint16
	SamplePeriod      uint16
	TransmitFrequency uint16
	NumberOfSamples   uint16
	Transmit          uint8
	Reserved          uint8
}

func (Transducer) ID() uint16 { return IDTransducer }
func (m Transducer) Encode(w *message.Writer) {
	w.U8(m.Mode)
	w.U8(m.GainSetting)
	w.U16(m.Angle)
	w.U16(m.TransmitDuration)
	w.U16(m.SamplePeriod)
	w.U16(m.TransmitFrequency)
	w.U16(m.NumberOfSamples)
	w.U8(m.Transmit)
	w.U8(m.Reserved)
}
func decodeTransducer(r *message.Reader) message.Message {
	return Transducer{
		Mode:              r.U8(),
		GainSetting:       r.U8(),
		Angle:             r.U16(),
		TransmitDuration:  r.U16(),
		SamplePeriod:      r.U16(),
		TransmitFrequency: r.U16(),
		NumberOfSamples:   r.U16(),
		Transmit:          r.U8(),
		Reserved:          r.U8(),
	}
}

type AutoTransmit struct {
	Mode              uint8
	GainSetting       uint8
	TransmitDuration  uint16
	SamplePeriod      uint16
	TransmitFrequency uint16
	NumberOfSamples   uint16
	StartAngle        uint16
	StopAngle         uint16
	NumSteps          uint8
	Delay             uint8
}

func (AutoTransmit) ID() uint16 { return IDAutoTransmit }
func (m AutoTransmit) Encode(w *message.Writer) {
	w.U8(m.Mode)
	w.U8(m.GainSetting)
	w.U16(m.TransmitDuration)
	w.U16(m.SamplePeriod)
	w.U16(m.TransmitFrequency)
	w.U16(m.NumberOfSamples)
	w.U16(m.StartAngle)
	w.U16(m.StopAngle)
	w.U8(m.NumSteps)
	w.U8(m.Delay)
}
func decodeAutoTransmit(r *message.Reader) message.Message {
	return AutoTransmit{
		Mode:              r.U8(),
		GainSetting:       r.U8(),
		TransmitDuration:  r.U16(),
		SamplePeriod:      r.U16(),
		TransmitFrequency: r.U16(),
		NumberOfSamples:   r.U16(),
		StartAngle:        r.U16(),
		StopAngle:         r.U16(),
		NumSteps:          r.U8(),
		Delay:             r.U8(),
	}
}

// MotorOff stops head motor until next Transducer command.
type MotorOff struct{}

func (MotorOff) ID() uint16               { return IDMotorOff }
func (MotorOff) Encode(w *message.Writer) {}
