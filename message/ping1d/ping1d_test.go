package ping1d

import (
	"fmt"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/message"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	const u8, u16, u32 = math.MaxUint8, math.MaxUint16, math.MaxUint32
	f := NewFamily("ping1d")

	cases := []message.Message{
		SetDeviceID{}, SetDeviceID{DeviceID: u8},
		SetRange{}, SetRange{ScanStart: u32, ScanLength: u32},
		SetSpeedOfSound{SpeedOfSound: 343000}, SetSpeedOfSound{SpeedOfSound: u32},
		SetModeAuto{ModeAuto: 1},
		SetPingInterval{PingInterval: u16},
		SetGainSetting{GainSetting: 6},
		SetPingEnable{PingEnabled: 1},
		GotoBootloader{},
		FirmwareVersion{DeviceType: 1, DeviceModel: 2, FirmwareVersionMajor: u16, FirmwareVersionMinor: 0},
		DeviceID{DeviceID: u8},
		Voltage5{Voltage5: 5012},
		SpeedOfSound{}, SpeedOfSound{SpeedOfSound: u32},
		Range{ScanStart: 0, ScanLength: u32},
		ModeAuto{ModeAuto: u8},
		PingInterval{PingInterval: 100},
		GainSetting{GainSetting: u32},
		TransmitDuration{TransmitDuration: u16},
		GeneralInfo{FirmwareVersionMajor: 3, FirmwareVersionMinor: 29, Voltage5: 5000, PingInterval: 100, GainSetting: u8, ModeAuto: 1},
		DistanceSimple{Distance: u32, Confidence: 100},
		Distance{Distance: 1500, Confidence: u16, TransmitDuration: 50, PingNumber: u32, ScanStart: 0, ScanLength: 30000, GainSetting: 6},
		ProcessorTemperature{ProcessorTemperature: 4512},
		PcbTemperature{PcbTemperature: u16},
		PingEnable{PingEnabled: u8},
		Profile{Distance: 1, PingNumber: 2},
		Profile{Distance: u32, Confidence: u16, TransmitDuration: u16, PingNumber: u32, ScanStart: u32, ScanLength: u32, GainSetting: u32, ProfileData: []byte{0, 1, 0xff}},
		Profile{ProfileData: make([]byte, 200)},
		ContinuousStart{MessageID: IDProfile},
		ContinuousStop{MessageID: u16},
		message.Ack{AckedID: IDSetSpeedOfSound},
		message.Nack{NackedID: IDSetRange, Reason: "invalid range"},
	}
	helpers.RandUnix().Shuffle(len(cases), func(a int, b int) { cases[a], cases[b] = cases[b], cases[a] })
	for _, m := range cases {
		m := m
		t.Run(fmt.Sprintf("%s/%v", f.Name(m.ID()), m), func(t *testing.T) {
			payload, err := f.Encode(m)
			require.NoError(t, err)
			m2, err := f.Decode(m.ID(), payload)
			require.NoError(t, err)
			assert.Equal(t, m, m2)

			// every truncated payload is malformed, except free length text
			if _, text := m.(message.Nack); text {
				return
			}
			for i := 0; i < len(payload); i++ {
				_, err = f.Decode(m.ID(), payload[:i])
				assert.True(t, errors.IsNotValid(err), "truncated=%d err=%v", i, err)
			}
		})
	}
}

func TestWire(t *testing.T) {
	t.Parallel()
	assert.Equal(t, helpers.MustHex("d83b0500"), message.Payload(SetSpeedOfSound{SpeedOfSound: 343000}))
	assert.Equal(t, helpers.MustHex("1405"), message.Payload(ContinuousStart{MessageID: IDProfile}))
	assert.Equal(t,
		helpers.MustHex("01000000 0200 0300 04000000 05000000 06000000 07000000 0300 aabbcc"),
		message.Payload(Profile{Distance: 1, Confidence: 2, TransmitDuration: 3, PingNumber: 4, ScanStart: 5, ScanLength: 6, GainSetting: 7, ProfileData: helpers.MustHex("aabbcc")}))
}

func TestFamilyNames(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"ping1d", "ping1dtsr", "tsr1000"} {
		f := NewFamily(name)
		assert.Equal(t, name, f.Kind())
		id, ok := f.IDOf("profile")
		assert.True(t, ok)
		assert.Equal(t, IDProfile, id)
		assert.Equal(t, "speed_of_sound", f.Name(IDSpeedOfSound))

		start, err := f.StartCommand(IDProfile)
		require.NoError(t, err)
		assert.Equal(t, ContinuousStart{MessageID: IDProfile}, start)
		stop, err := f.StopCommand(IDDistance)
		require.NoError(t, err)
		assert.Equal(t, ContinuousStop{MessageID: IDDistance}, stop)
	}
}

func TestNewFamilyCommonName(t *testing.T) {
	t.Parallel()
	var f *message.Family
	require.NotPanics(t, func() { f = NewFamily("ping1d") })

	id, ok := f.IDOf("set_device_id")
	assert.True(t, ok)
	assert.Equal(t, IDSetDeviceID, id)
	assert.Equal(t, "set_device_id", f.Name(message.IDSetDeviceID))
	assert.Equal(t, "set_device_id", f.Name(IDSetDeviceID))

	m, err := f.Decode(message.IDSetDeviceID, []byte{7})
	require.NoError(t, err)
	assert.Equal(t, message.SetDeviceID{DeviceID: 7}, m)
	m, err = f.Decode(IDSetDeviceID, []byte{7})
	require.NoError(t, err)
	assert.Equal(t, SetDeviceID{DeviceID: 7}, m)
}

func TestEncodeProfileTooLong(t *testing.T) {
	t.Parallel()
	f := NewFamily("ping1d")
	_, err := f.Encode(Profile{ProfileData: make([]byte, 0x10000)})
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(errors.Cause(err)), err.Error())

	b, err := f.Encode(Profile{ProfileData: make([]byte, 200)})
	require.NoError(t, err)
	assert.Equal(t, message.Payload(Profile{ProfileData: make([]byte, 200)}), b)
}
