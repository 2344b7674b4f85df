package frame

// Decoder is incremental stream decoder.
// Push raw input, then call Next until Incomplete.
// Consecutive invalid bytes are reported as single Invalid event.
// Region ends with Complete frame or with buffered sync pair awaiting input,
// so failed frame after that is a new event.
// Payload of returned frames is a copy, safe to keep.
type Decoder struct {
	buf      []byte
	off      int
	max      int
	dropped  uint64
	resyncs  uint64
	scanning bool
}

func NewDecoder(max int) *Decoder {
	if max <= 0 {
		max = DefaultMaxPayload
	}
	return &Decoder{max: max}
}

func (d *Decoder) Push(b []byte) {
	if d.off > 0 && d.off == len(d.buf) {
		d.buf, d.off = d.buf[:0], 0
	} else if d.off > 0 && len(d.buf)+len(b) > cap(d.buf) {
		n := copy(d.buf, d.buf[d.off:])
		d.buf, d.off = d.buf[:n], 0
	}
	d.buf = append(d.buf, b...)
}

// Next returns Complete with frame, Invalid once per corrupted region,
// or Incomplete when buffered input is exhausted.
func (d *Decoder) Next() (Frame, Result) {
	for {
		f, r, n := Decode(d.buf[d.off:], d.max)
		switch r {
		case Complete:
			d.off += n
			d.scanning = false
			f.Payload = append([]byte(nil), f.Payload...)
			return f, Complete

		case Invalid:
			d.off += n
			d.dropped += uint64(n)
			if !d.scanning {
				d.scanning = true
				d.resyncs++
				return Frame{}, Invalid
			}

		default:
			if d.Buffered() >= 2 {
				d.scanning = false
			}
			return Frame{}, Incomplete
		}
	}
}

// Buffered returns count of bytes waiting for more input.
func (d *Decoder) Buffered() int { return len(d.buf) - d.off }

// Dropped returns total count of bytes skipped as invalid.
func (d *Decoder) Dropped() uint64 { return d.dropped }

// Resyncs returns count of Invalid events.
func (d *Decoder) Resyncs() uint64 { return d.resyncs }

func (d *Decoder) Reset() {
	d.buf, d.off = d.buf[:0], 0
	d.scanning = false
}
