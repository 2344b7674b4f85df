// Package message is the Ping protocol message layer above framing.
// Each message kind is a Go value type implementing Message.
// Family maps message ids to decoders for one device variant.
package message

import (
	"fmt"

	"github.com/temoto/sonar/frame"
)

type Message interface {
	ID() uint16
	Encode(w *Writer)
}

// Packet is a decoded message with frame addressing.
type Packet struct {
	Message
	Src uint8
	Dst uint8
}

func (p Packet) String() string {
	if p.Message == nil {
		return fmt.Sprintf("(src=%d dst=%d nil)", p.Src, p.Dst)
	}
	return fmt.Sprintf("(src=%d dst=%d id=%d %T%+v)", p.Src, p.Dst, p.Message.ID(), p.Message, p.Message)
}

// Definition describes one message kind in a Family.
// Decode must read fields through r and not keep r.
type Definition struct {
	Decode func(r *Reader) Message
	Name   string
	ID     uint16
}

// Payload returns encoded message fields.
// Writer error is ignored, Family.Encode reports it.
func Payload(m Message) []byte {
	var w Writer
	m.Encode(&w)
	return w.Bytes()
}

func NewFrame(m Message, src, dst uint8) frame.Frame {
	return frame.Frame{ID: m.ID(), Src: src, Dst: dst, Payload: Payload(m)}
}

// Unknown carries message id not defined in family, payload verbatim.
// Also allows to send arbitrary raw message.
type Unknown struct {
	Payload   []byte
	MessageID uint16
}

func (m Unknown) ID() uint16       { return m.MessageID }
func (m Unknown) Encode(w *Writer) { w.Raw(m.Payload) }
func (m Unknown) String() string   { return fmt.Sprintf("unknown(id=%d payload=%x)", m.MessageID, m.Payload) }
