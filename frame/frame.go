// Package frame implements Ping protocol v1 framing.
//
// Frame binary representation: field:size in bytes, little endian
// sync:2 ('B','R') length:2 id:2 src:1 dst:1 payload:length checksum:2
// Checksum is crc.Sum16 of everything before it.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/temoto/sonar/crc"
)

const (
	Sync1 = byte('B')
	Sync2 = byte('R')

	HeaderSize   = 2 /*sync*/ + 2 /*length*/ + 2 /*id*/ + 1 /*src*/ + 1 /*dst*/
	ChecksumSize = 2
	Overhead     = HeaderSize + ChecksumSize

	DefaultMaxPayload = 8192
)

var ErrFrameLenOverflow = fmt.Errorf("frame is too large")

type Frame struct {
	Payload []byte
	ID      uint16
	Src     uint8
	Dst     uint8
}

func (f *Frame) Size() int { return Overhead + len(f.Payload) }

// Marshal is deterministic, only error is payload longer than uint16.
func (f *Frame) Marshal() ([]byte, error) {
	if len(f.Payload) > math.MaxUint16 {
		return nil, ErrFrameLenOverflow
	}
	buf := make([]byte, f.Size())
	f.put(buf)
	return buf, nil
}

func (f *Frame) put(buf []byte) {
	buf[0] = Sync1
	buf[1] = Sync2
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(f.Payload)))
	binary.LittleEndian.PutUint16(buf[4:6], f.ID)
	buf[6] = f.Src
	buf[7] = f.Dst
	n := HeaderSize + copy(buf[HeaderSize:], f.Payload)
	binary.LittleEndian.PutUint16(buf[n:], crc.Sum16(buf[:n]))
}

func (f *Frame) String() string {
	return fmt.Sprintf("(id=%d src=%d dst=%d len=%d payload=%x)", f.ID, f.Src, f.Dst, len(f.Payload), f.Payload)
}

type Result uint8

const (
	Incomplete Result = iota
	Complete
	Invalid
)

func (r Result) String() string {
	switch r {
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("result(%d)", uint8(r))
}

// Decode tries to parse one frame at start of buf.
// Returns number of bytes consumed:
// Incomplete - 0, need more input;
// Invalid - 1, caller should call again to scan forward;
// Complete - frame size, Payload points into buf.
// max <= 0 means DefaultMaxPayload.
func Decode(buf []byte, max int) (Frame, Result, int) {
	if max <= 0 {
		max = DefaultMaxPayload
	}
	if len(buf) < 1 {
		return Frame{}, Incomplete, 0
	}
	if buf[0] != Sync1 {
		return Frame{}, Invalid, 1
	}
	if len(buf) < 2 {
		return Frame{}, Incomplete, 0
	}
	if buf[1] != Sync2 {
		return Frame{}, Invalid, 1
	}
	if len(buf) < 4 {
		return Frame{}, Incomplete, 0
	}
	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length > max {
		return Frame{}, Invalid, 1
	}
	size := Overhead + length
	if len(buf) < size {
		return Frame{}, Incomplete, 0
	}
	end := HeaderSize + length
	declared := binary.LittleEndian.Uint16(buf[end:size])
	if crc.Sum16(buf[:end]) != declared {
		return Frame{}, Invalid, 1
	}
	f := Frame{
		ID:      binary.LittleEndian.Uint16(buf[4:6]),
		Src:     buf[6],
		Dst:     buf[7],
		Payload: buf[HeaderSize:end:end],
	}
	return f, Complete, size
}
