// Package devsim is simulated Ping1D device for tests and demo.
// Answers requests, keeps settings, streams synthetic profiles.
package devsim

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/sonar/frame"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/message/ping1d"
)

const (
	DefaultDeviceID       = 1
	DefaultStreamInterval = 100 * time.Millisecond
	DefaultSamples        = 200
)

type Options struct {
	Log            *log2.Log
	Nack           map[uint16]string // command id -> reason, refused always
	Silent         map[uint16]bool   // command ids left without answer
	StreamInterval time.Duration
	Samples        int
	DeviceID       uint8
}

type settings struct {
	speedOfSound uint32
	scanStart    uint32
	scanLength   uint32
	pingNumber   uint32
	gain         uint32
	pingInterval uint16
	deviceID     uint8
	modeAuto     uint8
	pingEnabled  uint8
}

type Device struct {
	alive *alive.Alive
	rw    io.ReadWriteCloser
	fam   *message.Family
	opt   Options
	txlk  sync.Mutex

	mu      sync.Mutex
	s       settings
	streams map[uint16]*alive.Alive
}

func New(rw io.ReadWriteCloser, opt Options) *Device {
	if opt.DeviceID == 0 {
		opt.DeviceID = DefaultDeviceID
	}
	if opt.StreamInterval <= 0 {
		opt.StreamInterval = DefaultStreamInterval
	}
	if opt.Samples <= 0 {
		opt.Samples = DefaultSamples
	}
	return &Device{
		alive: alive.NewAlive(),
		rw:    rw,
		fam:   ping1d.NewFamily("ping1d"),
		opt:   opt,
		s: settings{
			speedOfSound: 1500000,
			scanStart:    0,
			scanLength:   10000,
			gain:         3,
			pingInterval: 100,
			deviceID:     opt.DeviceID,
			modeAuto:     1,
			pingEnabled:  1,
		},
		streams: make(map[uint16]*alive.Alive),
	}
}

// Start runs Run in background.
func (d *Device) Start() {
	go func() { _ = d.Run() }()
}

// Run serves requests until transport error or Close.
func (d *Device) Run() error {
	if !d.alive.Add(1) {
		return errors.New("devsim closed")
	}
	defer d.alive.Done()
	dec := frame.NewDecoder(0)
	buf := make([]byte, 16<<10)
	for {
		n, err := d.rw.Read(buf)
		if n > 0 {
			dec.Push(buf[:n])
			for {
				f, r := dec.Next()
				if r == frame.Incomplete {
					break
				}
				if r == frame.Complete {
					d.handle(f)
				}
			}
		}
		if err != nil {
			d.stopAll()
			if !d.alive.IsRunning() {
				return nil
			}
			err = errors.Annotate(err, "devsim read")
			d.opt.Log.Debugf("devsim stopped err=%v", err)
			return err
		}
	}
}

func (d *Device) Close() error {
	d.alive.Stop()
	d.stopAll()
	err := d.rw.Close()
	d.alive.Wait()
	return err
}

// Streaming returns ids emitted continuously, ascending.
func (d *Device) Streaming() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]uint16, 0, len(d.streams))
	for id := range d.streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

func (d *Device) SpeedOfSound() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.speedOfSound
}

func (d *Device) send(m message.Message, dst uint8) error {
	d.mu.Lock()
	src := d.s.deviceID
	d.mu.Unlock()
	f := message.NewFrame(m, src, dst)
	b, err := f.Marshal()
	if err != nil {
		return errors.Trace(err)
	}
	d.txlk.Lock()
	defer d.txlk.Unlock()
	return helpers.WriteAll(d.rw, b)
}

func (d *Device) handle(f frame.Frame) {
	m, err := d.fam.Decode(f.ID, f.Payload)
	if err != nil {
		d.opt.Log.Debugf("devsim decode id=%d err=%v", f.ID, err)
		d.reply(f.Src, message.Nack{NackedID: f.ID, Reason: "malformed"})
		return
	}
	d.opt.Log.Debugf("devsim recv %s %v", d.fam.Name(f.ID), m)
	if d.opt.Silent[f.ID] {
		return
	}
	if reason, ok := d.opt.Nack[f.ID]; ok {
		d.reply(f.Src, message.Nack{NackedID: f.ID, Reason: reason})
		return
	}
	d.reply(f.Src, d.execute(m))
}

func (d *Device) reply(dst uint8, m message.Message) {
	if m == nil {
		return
	}
	if err := d.send(m, dst); err != nil {
		d.opt.Log.Debugf("devsim send %s err=%v", d.fam.Name(m.ID()), err)
	}
}

func ack(id uint16) message.Message { return message.Ack{AckedID: id} }

func (d *Device) execute(m message.Message) message.Message {
	switch cmd := m.(type) {
	case message.GeneralRequest:
		if cmd.RequestedID == ping1d.IDProfile {
			return d.profile()
		}
		if r := d.report(cmd.RequestedID); r != nil {
			return r
		}
		return message.Nack{NackedID: cmd.RequestedID, Reason: "unknown message"}

	case ping1d.SetDeviceID, message.SetDeviceID:
		var id uint8
		if x, ok := cmd.(ping1d.SetDeviceID); ok {
			id = x.DeviceID
		} else {
			id = cmd.(message.SetDeviceID).DeviceID
		}
		if id == 0 || id == 255 {
			return message.Nack{NackedID: m.ID(), Reason: "device id out of range"}
		}
		// ack goes from old id
		resp := ack(m.ID())
		d.reply(0, resp)
		d.mu.Lock()
		d.s.deviceID = id
		d.mu.Unlock()
		return nil

	case ping1d.SetRange:
		if cmd.ScanLength == 0 {
			return message.Nack{NackedID: m.ID(), Reason: "invalid range"}
		}
		d.update(func(s *settings) { s.scanStart, s.scanLength, s.modeAuto = cmd.ScanStart, cmd.ScanLength, 0 })
	case ping1d.SetSpeedOfSound:
		d.update(func(s *settings) { s.speedOfSound = cmd.SpeedOfSound })
	case ping1d.SetModeAuto:
		d.update(func(s *settings) { s.modeAuto = cmd.ModeAuto })
	case ping1d.SetPingInterval:
		d.update(func(s *settings) { s.pingInterval = cmd.PingInterval })
	case ping1d.SetGainSetting:
		if cmd.GainSetting > 6 {
			return message.Nack{NackedID: m.ID(), Reason: "gain out of range"}
		}
		d.update(func(s *settings) { s.gain = uint32(cmd.GainSetting) })
	case ping1d.SetPingEnable:
		d.update(func(s *settings) { s.pingEnabled = cmd.PingEnabled })
	case ping1d.GotoBootloader:

	case ping1d.ContinuousStart:
		if d.report(cmd.MessageID) == nil && cmd.MessageID != ping1d.IDProfile {
			return message.Nack{NackedID: m.ID(), Reason: "not streamable"}
		}
		d.startStream(cmd.MessageID)
	case ping1d.ContinuousStop:
		// emission is over before Ack leaves
		d.stopStream(cmd.MessageID)

	default:
		return message.Nack{NackedID: m.ID(), Reason: "unsupported"}
	}
	return ack(m.ID())
}

func (d *Device) update(f func(s *settings)) {
	d.mu.Lock()
	f(&d.s)
	d.mu.Unlock()
}

// report returns current value message, nil if id is not readable.
func (d *Device) report(id uint16) message.Message {
	d.mu.Lock()
	s := d.s
	d.mu.Unlock()
	switch id {
	case message.IDProtocolVersion:
		return message.ProtocolVersion{VersionMajor: 1, VersionMinor: 0, VersionPatch: 0}
	case message.IDDeviceInformation:
		return message.DeviceInformation{DeviceType: 1, DeviceRevision: 1, FirmwareVersionMajor: 3, FirmwareVersionMinor: 29, FirmwareVersionPatch: 0}
	case ping1d.IDFirmwareVersion:
		return ping1d.FirmwareVersion{DeviceType: 1, DeviceModel: 1, FirmwareVersionMajor: 3, FirmwareVersionMinor: 29}
	case ping1d.IDDeviceID:
		return ping1d.DeviceID{DeviceID: s.deviceID}
	case ping1d.IDVoltage5:
		return ping1d.Voltage5{Voltage5: 5012}
	case ping1d.IDSpeedOfSound:
		return ping1d.SpeedOfSound{SpeedOfSound: s.speedOfSound}
	case ping1d.IDRange:
		return ping1d.Range{ScanStart: s.scanStart, ScanLength: s.scanLength}
	case ping1d.IDModeAuto:
		return ping1d.ModeAuto{ModeAuto: s.modeAuto}
	case ping1d.IDPingInterval:
		return ping1d.PingInterval{PingInterval: s.pingInterval}
	case ping1d.IDGainSetting:
		return ping1d.GainSetting{GainSetting: s.gain}
	case ping1d.IDTransmitDuration:
		return ping1d.TransmitDuration{TransmitDuration: 50}
	case ping1d.IDGeneralInfo:
		return ping1d.GeneralInfo{FirmwareVersionMajor: 3, FirmwareVersionMinor: 29, Voltage5: 5012, PingInterval: s.pingInterval, GainSetting: uint8(s.gain), ModeAuto: s.modeAuto}
	case ping1d.IDDistanceSimple:
		return ping1d.DistanceSimple{Distance: distance(s), Confidence: 100}
	case ping1d.IDDistance:
		return ping1d.Distance{Distance: distance(s), Confidence: 100, TransmitDuration: 50, PingNumber: s.pingNumber, ScanStart: s.scanStart, ScanLength: s.scanLength, GainSetting: s.gain}
	case ping1d.IDProcessorTemperature:
		return ping1d.ProcessorTemperature{ProcessorTemperature: 4250}
	case ping1d.IDPcbTemperature:
		return ping1d.PcbTemperature{PcbTemperature: 3810}
	case ping1d.IDPingEnable:
		return ping1d.PingEnable{PingEnabled: s.pingEnabled}
	}
	return nil
}

// distance moves slowly over ping numbers within scan range
func distance(s settings) uint32 {
	if s.scanLength == 0 {
		return s.scanStart
	}
	return s.scanStart + (s.scanLength/4 + s.pingNumber*10%(s.scanLength/2+1))
}

func (d *Device) profile() message.Message {
	d.mu.Lock()
	d.s.pingNumber++
	s := d.s
	d.mu.Unlock()
	dist := distance(s)
	data := make([]byte, d.opt.Samples)
	peak := int(uint64(dist-s.scanStart) * uint64(len(data)) / uint64(s.scanLength+1))
	for i := range data {
		delta := i - peak
		if delta < 0 {
			delta = -delta
		}
		if delta < 8 {
			data[i] = byte(255 - delta*30)
		} else {
			data[i] = byte((i*7 + int(s.pingNumber)) % 16)
		}
	}
	return ping1d.Profile{
		Distance:         dist,
		Confidence:       100,
		TransmitDuration: 50,
		PingNumber:       s.pingNumber,
		ScanStart:        s.scanStart,
		ScanLength:       s.scanLength,
		GainSetting:      s.gain,
		ProfileData:      data,
	}
}

func (d *Device) startStream(id uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.streams[id]; ok {
		return
	}
	a := alive.NewAlive()
	if !a.Add(1) {
		return
	}
	d.streams[id] = a
	go d.emitter(a, id)
}

// stopStream returns after emitter exits.
func (d *Device) stopStream(id uint16) {
	d.mu.Lock()
	a := d.streams[id]
	delete(d.streams, id)
	d.mu.Unlock()
	if a != nil {
		a.Stop()
		a.Wait()
	}
}

func (d *Device) stopAll() {
	d.mu.Lock()
	all := d.streams
	d.streams = make(map[uint16]*alive.Alive)
	d.mu.Unlock()
	for _, a := range all {
		a.Stop()
		a.Wait()
	}
}

func (d *Device) emitter(a *alive.Alive, id uint16) {
	defer a.Done()
	tick := time.NewTicker(d.opt.StreamInterval)
	defer tick.Stop()
	stopch := a.StopChan()
	for {
		select {
		case <-tick.C:
		case <-stopch:
			return
		}
		var m message.Message
		if id == ping1d.IDProfile {
			m = d.profile()
		} else {
			d.update(func(s *settings) { s.pingNumber++ })
			m = d.report(id)
		}
		if err := d.send(m, 0); err != nil {
			d.opt.Log.Debugf("devsim stream %s err=%v", d.fam.Name(id), err)
			return
		}
	}
}
