package message

// Common messages, part of every family.
const (
	IDAck               uint16 = 1
	IDNack              uint16 = 2
	IDAsciiText         uint16 = 3
	IDDeviceInformation uint16 = 4
	IDProtocolVersion   uint16 = 5
	IDGeneralRequest    uint16 = 6
	IDSetDeviceID       uint16 = 100
)

type Ack struct {
	AckedID uint16
}

func (Ack) ID() uint16            { return IDAck }
func (m Ack) Encode(w *Writer)    { w.U16(m.AckedID) }
func decodeAck(r *Reader) Message { return Ack{AckedID: r.U16()} }

// Nack is device refusal of command NackedID with human readable reason.
type Nack struct {
	Reason   string
	NackedID uint16
}

func (Nack) ID() uint16 { return IDNack }
func (m Nack) Encode(w *Writer) {
	w.U16(m.NackedID)
	w.Chars(m.Reason)
}
func decodeNack(r *Reader) Message {
	m := Nack{NackedID: r.U16()}
	m.Reason = r.Chars()
	return m
}

type AsciiText struct {
	Text string
}

func (AsciiText) ID() uint16         { return IDAsciiText }
func (m AsciiText) Encode(w *Writer) { w.Chars(m.Text) }

type DeviceInformation struct {
	DeviceType           uint8
	DeviceRevision       uint8
	FirmwareVersionMajor uint8
	FirmwareVersionMinor uint8
	FirmwareVersionPatch uint8
	Reserved             uint8
}

func (DeviceInformation) ID() uint16 { return IDDeviceInformation }
func (m DeviceInformation) Encode(w *Writer) {
	w.U8(m.DeviceType)
	w.U8(m.DeviceRevision)
	w.U8(m.FirmwareVersionMajor)
	w.U8(m.FirmwareVersionMinor)
	w.U8(m.FirmwareVersionPatch)
	w.U8(m.Reserved)
}
func decodeDeviceInformation(r *Reader) Message {
	return DeviceInformation{
		DeviceType:           r.U8(),
		DeviceRevision:       r.U8(),
		FirmwareVersionMajor: r.U8(),
		FirmwareVersionMinor: r.U8(),
		FirmwareVersionPatch: r.U8(),
		Reserved:             r.U8(),
	}
}

type ProtocolVersion struct {
	VersionMajor uint8
	VersionMinor uint8
	VersionPatch uint8
	Reserved     uint8
}

func (ProtocolVersion) ID() uint16 { return IDProtocolVersion }
func (m ProtocolVersion) Encode(w *Writer) {
	w.U8(m.VersionMajor)
	w.U8(m.VersionMinor)
	w.U8(m.VersionPatch)
	w.U8(m.Reserved)
}
func decodeProtocolVersion(r *Reader) Message {
	return ProtocolVersion{
		VersionMajor: r.U8(),
		VersionMinor: r.U8(),
		VersionPatch: r.U8(),
		Reserved:     r.U8(),
	}
}

// GeneralRequest asks device to send message RequestedID.
type GeneralRequest struct {
	RequestedID uint16
}

func (GeneralRequest) ID() uint16         { return IDGeneralRequest }
func (m GeneralRequest) Encode(w *Writer) { w.U16(m.RequestedID) }

type SetDeviceID struct {
	DeviceID uint8
}

func (SetDeviceID) ID() uint16         { return IDSetDeviceID }
func (m SetDeviceID) Encode(w *Writer) { w.U8(m.DeviceID) }

// Common returns definitions shared by all families.
func Common() []Definition {
	return []Definition{
		{ID: IDAck, Name: "ack", Decode: decodeAck},
		{ID: IDNack, Name: "nack", Decode: decodeNack},
		{ID: IDAsciiText, Name: "ascii_text", Decode: func(r *Reader) Message { return AsciiText{Text: r.Chars()} }},
		{ID: IDDeviceInformation, Name: "device_information", Decode: decodeDeviceInformation},
		{ID: IDProtocolVersion, Name: "protocol_version", Decode: decodeProtocolVersion},
		{ID: IDGeneralRequest, Name: "general_request", Decode: func(r *Reader) Message { return GeneralRequest{RequestedID: r.U16()} }},
		{ID: IDSetDeviceID, Name: "set_device_id", Decode: func(r *Reader) Message { return SetDeviceID{DeviceID: r.U8()} }},
	}
}
