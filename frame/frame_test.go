package frame

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/helpers"
)

func TestMarshal(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		f      Frame
		expect string
	}
	cases := []Case{
		{"general_request", Frame{ID: 6, Payload: helpers.MustHex("bb04")}, "4252020006000000bb045b01"},
		{"ack", Frame{ID: 1, Src: 1, Payload: helpers.MustHex("ea03")}, "4252020001000100ea038501"},
		{"set_speed_of_sound", Frame{ID: 1002, Payload: helpers.MustHex("d83b0500")}, "42520400ea030000d83b05009d02"},
		{"empty", Frame{ID: 1100}, "425200004c040000e400"},
	}
	helpers.RandUnix().Shuffle(len(cases), func(a int, b int) { cases[a], cases[b] = cases[b], cases[a] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			b, err := c.f.Marshal()
			require.NoError(t, err)
			assert.Equal(t, c.expect, fmt.Sprintf("%x", b))

			f2, r, n := Decode(b, 0)
			require.Equal(t, Complete, r)
			assert.Equal(t, len(b), n)
			assert.Equal(t, c.f.ID, f2.ID)
			assert.Equal(t, c.f.Src, f2.Src)
			assert.Equal(t, c.f.Dst, f2.Dst)
			assert.Equal(t, len(c.f.Payload), len(f2.Payload))
			if len(c.f.Payload) > 0 {
				assert.Equal(t, c.f.Payload, f2.Payload)
			}
		})
	}
}

func TestMarshalOverflow(t *testing.T) {
	t.Parallel()
	f := Frame{ID: 1300, Payload: make([]byte, 65536)}
	_, err := f.Marshal()
	assert.Equal(t, ErrFrameLenOverflow, err)

	f.Payload = f.Payload[:65535]
	b, err := f.Marshal()
	require.NoError(t, err)
	_, r, n := Decode(b, 65535)
	assert.Equal(t, Complete, r)
	assert.Equal(t, 65545, n)
}

func TestDecodeIncomplete(t *testing.T) {
	t.Parallel()
	b := helpers.MustHex("42520400ea030000d83b05009d02")
	for i := 0; i < len(b); i++ {
		_, r, n := Decode(b[:i], 0)
		assert.Equal(t, Incomplete, r, "prefix=%d", i)
		assert.Equal(t, 0, n, "prefix=%d", i)
	}
	_, r, n := Decode(b, 0)
	assert.Equal(t, Complete, r)
	assert.Equal(t, len(b), n)
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		max   int
	}{
		{"sync1", "00", 0},
		{"sync2", "4200", 0},
		{"checksum", "42520400ea030000d83b05009d03", 0},
		{"too-long", "42520400ea030000", 3},
		{"too-long-default", "42520120ea030000", 0},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, r, n := Decode(helpers.MustHex(c.input), c.max)
			assert.Equal(t, Invalid, r)
			assert.Equal(t, 1, n)
		})
	}
}

func TestDecoderResync(t *testing.T) {
	t.Parallel()

	// corrupted checksum, then valid frame
	d := NewDecoder(0)
	d.Push(helpers.MustHex("42520400ea030000d83b05009d03" + "4252020001000100ea038501"))

	_, r := d.Next()
	assert.Equal(t, Invalid, r)
	f, r := d.Next()
	require.Equal(t, Complete, r)
	assert.Equal(t, uint16(1), f.ID)
	assert.Equal(t, helpers.MustHex("ea03"), f.Payload)
	_, r = d.Next()
	assert.Equal(t, Incomplete, r)
	assert.Equal(t, uint64(14), d.Dropped())
	assert.Equal(t, uint64(1), d.Resyncs())
	assert.Equal(t, 0, d.Buffered())
}

func TestDecoderResyncAfterPartial(t *testing.T) {
	t.Parallel()

	d := NewDecoder(0)
	d.Push(helpers.MustHex("ffff" + "42520400ea030000"))
	_, r := d.Next()
	assert.Equal(t, Invalid, r)
	_, r = d.Next()
	assert.Equal(t, Incomplete, r)
	assert.Equal(t, 8, d.Buffered())

	// rest of header arrives with bad checksum, then valid frame
	d.Push(helpers.MustHex("d83b05009d03" + "4252020001000100ea038501"))
	_, r = d.Next()
	assert.Equal(t, Invalid, r)
	f, r := d.Next()
	require.Equal(t, Complete, r)
	assert.Equal(t, uint16(1), f.ID)
	_, r = d.Next()
	assert.Equal(t, Incomplete, r)
	assert.Equal(t, uint64(2), d.Resyncs())
	assert.Equal(t, uint64(16), d.Dropped())

	// garbage split across pushes is still one event
	d.Push([]byte{0xff})
	_, r = d.Next()
	assert.Equal(t, Invalid, r)
	_, r = d.Next()
	assert.Equal(t, Incomplete, r)
	d.Push([]byte{0xfe, 0x42})
	_, r = d.Next()
	assert.Equal(t, Incomplete, r)
	assert.Equal(t, uint64(3), d.Resyncs())
}

func TestDecoderSplit(t *testing.T) {
	t.Parallel()

	stream := helpers.MustHex("ffff" + "4252020006000000bb045b01" + "00" + "425200004c040000e400")
	d := NewDecoder(0)
	var ids []uint16
	invalid := 0
	for _, x := range stream {
		d.Push([]byte{x})
	loop:
		for {
			f, r := d.Next()
			switch r {
			case Complete:
				ids = append(ids, f.ID)
			case Invalid:
				invalid++
			case Incomplete:
				break loop
			}
		}
	}
	assert.Equal(t, []uint16{6, 1100}, ids)
	assert.Equal(t, 2, invalid)
	assert.Equal(t, uint64(3), d.Dropped())
}

func TestDecoderPayloadCopy(t *testing.T) {
	t.Parallel()
	d := NewDecoder(0)
	d.Push(helpers.MustHex("4252020006000000bb045b01"))
	f, r := d.Next()
	require.Equal(t, Complete, r)
	d.Push(helpers.MustHex("4252020001000100ea038501"))
	assert.Equal(t, helpers.MustHex("bb04"), f.Payload)
}
