// Package ping1d defines messages of Ping1D echosounder and compatible
// devices (Ping1D TSR, TSR1000).
package ping1d

import (
	"github.com/temoto/sonar/message"
)

const (
	IDSetDeviceID          uint16 = 1000
	IDSetRange             uint16 = 1001
	IDSetSpeedOfSound      uint16 = 1002
	IDSetModeAuto          uint16 = 1003
	IDSetPingInterval      uint16 = 1004
	IDSetGainSetting       uint16 = 1005
	IDSetPingEnable        uint16 = 1006
	IDGotoBootloader       uint16 = 1100
	IDFirmwareVersion      uint16 = 1200
	IDDeviceID             uint16 = 1201
	IDVoltage5             uint16 = 1202
	IDSpeedOfSound         uint16 = 1203
	IDRange                uint16 = 1204
	IDModeAuto             uint16 = 1205
	IDPingInterval         uint16 = 1206
	IDGainSetting          uint16 = 1207
	IDTransmitDuration     uint16 = 1208
	IDGeneralInfo          uint16 = 1210
	IDDistanceSimple       uint16 = 1211
	IDDistance             uint16 = 1212
	IDProcessorTemperature uint16 = 1213
	IDPcbTemperature       uint16 = 1214
	IDPingEnable           uint16 = 1215
	IDProfile              uint16 = 1300
	IDContinuousStart      uint16 = 1400
	IDContinuousStop       uint16 = 1401
)

// NewFamily returns ping1d vocabulary under given family name.
func NewFamily(name string) *message.Family {
	return message.NewFamily(name, &message.StreamControl{
		Start: func(id uint16) message.Message { return ContinuousStart{MessageID: id} },
		Stop:  func(id uint16) message.Message { return ContinuousStop{MessageID: id} },
	}, Definitions()...)
}

func Definitions() []message.Definition {
	return []message.Definition{
		{ID: IDSetDeviceID, Name: "set_device_id", Decode: func(r *message.Reader) message.Message { return SetDeviceID{DeviceID: r.U8()} }},
		{ID: IDSetRange, Name: "set_range", Decode: func(r *message.Reader) message.Message {
			return SetRange{ScanStart: r.U32(), ScanLength: r.U32()}
		}},
		{ID: IDSetSpeedOfSound, Name: "set_speed_of_sound", Decode: func(r *message.Reader) message.Message { return SetSpeedOfSound{SpeedOfSound: r.U32()} }},
		{ID: IDSetModeAuto, Name: "set_mode_auto", Decode: func(r *message.Reader) message.Message { return SetModeAuto{ModeAuto: r.U8()} }},
		{ID: IDSetPingInterval, Name: "set_ping_interval", Decode: func(r *message.Reader) message.Message { return SetPingInterval{PingInterval: r.U16()} }},
		{ID: IDSetGainSetting, Name: "set_gain_setting", Decode: func(r *message.Reader) message.Message { return SetGainSetting{GainSetting: r.U8()} }},
		{ID: IDSetPingEnable, Name: "set_ping_enable", Decode: func(r *message.Reader) message.Message { return SetPingEnable{PingEnabled: r.U8()} }},
		{ID: IDGotoBootloader, Name: "goto_bootloader", Decode: func(r *message.Reader) message.Message { return GotoBootloader{} }},
		{ID: IDFirmwareVersion, Name: "firmware_version", Decode: decodeFirmwareVersion},
		{ID: IDDeviceID, Name: "device_id", Decode: func(r *message.Reader) message.Message { return DeviceID{DeviceID: r.U8()} }},
		{ID: IDVoltage5, Name: "voltage_5", Decode: func(r *message.Reader) message.Message { return Voltage5{Voltage5: r.U16()} }},
		{ID: IDSpeedOfSound, Name: "speed_of_sound", Decode: func(r *message.Reader) message.Message { return SpeedOfSound{SpeedOfSound: r.U32()} }},
		{ID: IDRange, Name: "range", Decode: func(r *message.Reader) message.Message {
			return Range{ScanStart: r.U32(), ScanLength: r.U32()}
		}},
		{ID: IDModeAuto, Name: "mode_auto", Decode: func(r *message.Reader) message.Message { return ModeAuto{ModeAuto: r.U8()} }},
		{ID: IDPingInterval, Name: "ping_interval", Decode: func(r *message.Reader) message.Message { return PingInterval{PingInterval: r.U16()} }},
		{ID: IDGainSetting, Name: "gain_setting", Decode: func(r *message.Reader) message.Message { return GainSetting{GainSetting: r.U32()} }},
		{ID: IDTransmitDuration, Name: "transmit_duration", Decode: func(r *message.Reader) message.Message {
			return TransmitDuration{TransmitDuration: r.U16()}
		}},
		{ID: IDGeneralInfo, Name: "general_info", Decode: decodeGeneralInfo},
		{ID: IDDistanceSimple, Name: "distance_simple", Decode: func(r *message.Reader) message.Message {
			return DistanceSimple{Distance: r.U32(), Confidence: r.U8()}
		}},
		{ID: IDDistance, Name: "distance", Decode: decodeDistance},
		{ID: IDProcessorTemperature, Name: "processor_temperature", Decode: func(r *message.Reader) message.Message {
			return ProcessorTemperature{ProcessorTemperature: r.U16()}
		}},
		{ID: IDPcbTemperature, Name: "pcb_temperature", Decode: func(r *message.Reader) message.Message {
			return PcbTemperature{PcbTemperature: r.U16()}
		}},
		{ID: IDPingEnable, Name: "ping_enable", Decode: func(r *message.Reader) message.Message { return PingEnable{PingEnabled: r.U8()} }},
		{ID: IDProfile, Name: "profile", Decode: decodeProfile},
		{ID: IDContinuousStart, Name: "continuous_start", Decode: func(r *message.Reader) message.Message { return ContinuousStart{MessageID: r.U16()} }},
		{ID: IDContinuousStop, Name: "continuous_stop", Decode: func(r *message.Reader) message.Message { return ContinuousStop{MessageID: r.U16()} }},
	}
}
