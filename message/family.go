package message

import (
	"fmt"
	"sort"

	"github.com/juju/errors"
)

// StreamControl builds family specific continuous start/stop commands.
type StreamControl struct {
	Start func(id uint16) Message
	Stop  func(id uint16) Message
}

// Family is immutable message table of one device variant.
// Safe for concurrent use.
type Family struct {
	kind   string
	defs   map[uint16]Definition
	names  map[string]uint16
	stream *StreamControl
}

// NewFamily includes Common definitions, then defs.
// Family definition may reuse Common name, IDOf then returns family id.
// Duplicate id, or duplicate name within defs, is programming error and panics.
func NewFamily(kind string, stream *StreamControl, defs ...Definition) *Family {
	f := &Family{
		kind:   kind,
		defs:   make(map[uint16]Definition, len(defs)+8),
		names:  make(map[string]uint16, len(defs)+8),
		stream: stream,
	}
	common := make(map[string]bool, 8)
	for _, d := range Common() {
		f.add(d)
		common[d.Name] = true
	}
	for _, d := range defs {
		if _, dup := f.names[d.Name]; dup && !common[d.Name] {
			panic(fmt.Sprintf("code error family=%s duplicate name=%s", kind, d.Name))
		}
		// second shadowing of same common name is duplicate
		delete(common, d.Name)
		f.add(d)
	}
	return f
}

func (f *Family) add(d Definition) {
	if _, dup := f.defs[d.ID]; dup {
		panic(fmt.Sprintf("code error family=%s duplicate id=%d", f.kind, d.ID))
	}
	f.defs[d.ID] = d
	f.names[d.Name] = d.ID
}

func (f *Family) Kind() string   { return f.kind }
func (f *Family) String() string { return f.kind }

func (f *Family) Lookup(id uint16) (Definition, bool) {
	d, ok := f.defs[id]
	return d, ok
}

// IDOf returns message id by protocol name, e.g. "speed_of_sound".
func (f *Family) IDOf(name string) (uint16, bool) {
	id, ok := f.names[name]
	return id, ok
}

// Name returns protocol name of message id or "unknown(id)".
func (f *Family) Name(id uint16) string {
	if d, ok := f.defs[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("unknown(%d)", id)
}

// Definitions returns all definitions ordered by id.
func (f *Family) Definitions() []Definition {
	ds := make([]Definition, 0, len(f.defs))
	for _, d := range f.defs {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(a, b int) bool { return ds[a].ID < ds[b].ID })
	return ds
}

// Decode unknown id is not an error, returns Unknown with payload copy.
// Known id with short payload returns NotValid error.
func (f *Family) Decode(id uint16, payload []byte) (Message, error) {
	d, ok := f.defs[id]
	if !ok {
		return Unknown{MessageID: id, Payload: append([]byte(nil), payload...)}, nil
	}
	r := NewReader(payload)
	m := d.Decode(r)
	if err := r.Err(); err != nil {
		return nil, errors.Annotatef(err, "family=%s decode %s", f.kind, d.Name)
	}
	return m, nil
}

// Encode returns payload of m.
// Unknown is passed through, other messages must belong to family.
func (f *Family) Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.NotValidf("nil message")
	}
	if _, raw := m.(Unknown); !raw {
		if _, ok := f.defs[m.ID()]; !ok {
			return nil, errors.NotSupportedf("family=%s message id=%d %T", f.kind, m.ID(), m)
		}
	}
	var w Writer
	m.Encode(&w)
	if err := w.Err(); err != nil {
		return nil, errors.Annotatef(err, "family=%s encode %s", f.kind, f.Name(m.ID()))
	}
	return w.Bytes(), nil
}

func (f *Family) StreamControl() *StreamControl { return f.stream }

func (f *Family) StartCommand(id uint16) (Message, error) {
	if f.stream == nil || f.stream.Start == nil {
		return nil, errors.NotSupportedf("family=%s continuous start", f.kind)
	}
	return f.stream.Start(id), nil
}

func (f *Family) StopCommand(id uint16) (Message, error) {
	if f.stream == nil || f.stream.Stop == nil {
		return nil, errors.NotSupportedf("family=%s continuous stop", f.kind)
	}
	return f.stream.Stop(id), nil
}
