/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file implements datagram bundle framing. A datagram carries a 1-byte message
count followed by that many framed messages, each laid out as

	messageNumber:uint16le | length:uint16le | typeID:byte | body

where length counts the type byte plus the body. Outbound bundles repeat the most
recent messages as a retransmission window; inbound bundles therefore contain
messages the receiver has already handled, which callers filter with NewerThan.
*/
package protocol

import (
	"bytes"

	"krelay/internal/pkg/errs"
)

// MaxBundleSize is the number of recent outbound messages repeated per datagram.
const MaxBundleSize = 5

// maxInboundBundle caps the declared message count of an inbound datagram.
// Anything larger is a malformed or hostile bundle.
const maxInboundBundle = 32

// Frame is one decoded slot of an inbound bundle. Err is set when the frame's
// body failed to parse; the frame header itself was sound, so the rest of the
// bundle is still usable.
type Frame struct {
	Number uint16
	Msg    Message
	Err    error
}

// Outbound pairs a message with its connection-assigned sequence number. The
// transport numbers messages as it enqueues them, independent of any number a
// message was parsed with.
type Outbound struct {
	Number uint16
	Msg    Message
}

// FormatBundle encodes the retransmission window into a single datagram,
// newest first.
func FormatBundle(window []Outbound) ([]byte, error) {
	if len(window) == 0 || len(window) > MaxBundleSize {
		return nil, errs.NewError(errs.ErrParseBadBundle, len(window))
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(len(window)))
	for _, o := range window {
		bodyLen := o.Msg.BodyLength()
		writeUint16(&buf, o.Number)
		writeUint16(&buf, uint16(bodyLen+1))
		buf.WriteByte(o.Msg.TypeID())
		if err := o.Msg.WriteBodyTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ParseBundle decodes an inbound datagram into its frames. Framing damage (bad
// count, truncated header, length overrunning the datagram) fails the whole
// bundle; a body that fails to parse only poisons its own frame.
func ParseBundle(data []byte) ([]Frame, error) {
	if len(data) < 1 {
		return nil, errs.NewError(errs.ErrParseBadBundle, 0)
	}
	count := int(data[0])
	if count == 0 || count > maxInboundBundle {
		return nil, errs.NewError(errs.ErrParseBadBundle, count)
	}

	frames := make([]Frame, 0, count)
	off := 1
	for i := 0; i < count; i++ {
		if len(data)-off < 5 {
			return nil, errs.NewError(errs.ErrParseTruncated)
		}
		number := uint16(data[off]) | uint16(data[off+1])<<8
		length := int(uint16(data[off+2]) | uint16(data[off+3])<<8)
		off += 4
		if length < 1 || len(data)-off < length {
			return nil, errs.NewError(errs.ErrParseTruncated)
		}
		typeID := data[off]
		body := data[off+1 : off+length]
		off += length

		msg, err := ParseMessage(typeID, number, body)
		frames = append(frames, Frame{Number: number, Msg: msg, Err: err})
	}
	return frames, nil
}

// NewerThan reports whether message number a is more recent than b under 16-bit
// wraparound. Numbers within half the sequence space ahead of b count as newer.
func NewerThan(a, b uint16) bool {
	return a != b && a-b < 0x8000
}
