package ping1d

import (
	"github.com/temoto/sonar/message"
)

type FirmwareVersion struct {
	DeviceType           uint8
	DeviceModel          uint8
	FirmwareVersionMajor uint16
	FirmwareVersionMinor uint16
}

func (FirmwareVersion) ID() uint16 { return IDFirmwareVersion }
func (m FirmwareVersion) Encode(w *message.Writer) {
	w.U8(m.DeviceType)
	w.U8(m.DeviceModel)
	w.U16(m.FirmwareVersionMajor)
	w.U16(m.FirmwareVersionMinor)
}
func decodeFirmwareVersion(r *message.Reader) message.Message {
	return FirmwareVersion{
		DeviceType:           r.U8(),
		DeviceModel:          r.U8(),
		FirmwareVersionMajor: r.U16(),
		FirmwareVersionMinor: r.U16(),
	}
}

type GeneralInfo struct {
	FirmwareVersionMajor uint16
	FirmwareVersionMinor uint16
	Voltage5             uint16
	PingInterval         uint16
	GainSetting          uint8
	ModeAuto             uint8
}

func (GeneralInfo) ID() uint16 { return IDGeneralInfo }
func (m GeneralInfo) Encode(w *message.Writer) {
	w.U16(m.FirmwareVersionMajor)
	w.U16(m.FirmwareVersionMinor)
	w.U16(m.Voltage5)
	w.U16(m.PingInterval)
	w.U8(m.GainSetting)
	w.U8(m.ModeAuto)
}
func decodeGeneralInfo(r *message.Reader) message.Message {
	return GeneralInfo{
		FirmwareVersionMajor: r.U16(),
		FirmwareVersionMinor: r.U16(),
		Voltage5:             r.U16(),
		PingInterval:         r.U16(),
		GainSetting:          r.U8(),
		ModeAuto:             r.U8(),
	}
}

// Distance is full measurement result, lengths in mm.
type Distance struct {
	Distance         uint32
	Confidence       uint16
	TransmitDuration uint16
	PingNumber       uint32
	ScanStart        uint32
	ScanLength       uint32
	GainSetting      uint32
}

func (Distance) ID() uint16 { return IDDistance }
func (m Distance) Encode(w *message.Writer) {
	w.U32(m.Distance)
	w.U16(m.Confidence)
	w.U16(m.TransmitDuration)
	w.U32(m.PingNumber)
	w.U32(m.ScanStart)
	w.U32(m.ScanLength)
	w.U32(m.GainSetting)
}
func decodeDistance(r *message.Reader) message.Message {
	return Distance{
		Distance:         r.U32(),
		Confidence:       r.U16(),
		TransmitDuration: r.U16(),
		PingNumber:       r.U32(),
		ScanStart:        r.U32(),
		ScanLength:       r.U32(),
		GainSetting:      r.U32(),
	}
}

// Profile is Distance plus echo strength samples across scan range.
// Usually streamed with ContinuousStart.
type Profile struct {
	ProfileData      []byte
	Distance         uint32
	Confidence       uint16
	TransmitDuration uint16
	PingNumber       uint32
	ScanStart        uint32
	ScanLength       uint32
	GainSetting      uint32
}

func (Profile) ID() uint16 { return IDProfile }
func (m Profile) Encode(w *message.Writer) {
	w.U32(m.Distance)
	w.U16(m.Confidence)
	w.U16(m.TransmitDuration)
	w.U32(m.PingNumber)
	w.U32(m.ScanStart)
	w.U32(m.ScanLength)
	w.U32(m.GainSetting)
	w.Vector(m.ProfileData)
}
func decodeProfile(r *message.Reader) message.Message {
	return Profile{
		Distance:         r.U32(),
		Confidence:       r.U16(),
		TransmitDuration: r.U16(),
		PingNumber:       r.U32(),
		ScanStart:        r.U32(),
		ScanLength:       r.U32(),
		GainSetting:      r.U32(),
		ProfileData:      r.Vector(),
	}
}
