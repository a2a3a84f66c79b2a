/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

Every message type owns symmetric parse/write logic over a shared framing vocabulary:
little-endian unsigned 16-bit integers, zero-terminated strings in a configurable
charset, and a computed (never parsed) body length. Parsing validates remaining byte
counts before every read so a truncated datagram fails with a parse error instead of
reading out of bounds.
*/
package protocol

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"krelay/internal/pkg/errs"
)

// Message type identifiers on the wire. The first byte of every framed message body.
const (
	TypeQuit               byte = 0x01
	TypeUserJoined         byte = 0x02
	TypeUserInformation    byte = 0x03
	TypeServerStatus       byte = 0x04
	TypeServerAck          byte = 0x05
	TypeClientAck          byte = 0x06
	TypeChat               byte = 0x07
	TypeGameChat           byte = 0x08
	TypeKeepAlive          byte = 0x09
	TypeCreateGame         byte = 0x0A
	TypeQuitGame           byte = 0x0B
	TypeJoinGame           byte = 0x0C
	TypePlayerInformation  byte = 0x0D
	TypeGameStatus         byte = 0x0E
	TypeCloseGame          byte = 0x10
	TypeGameData           byte = 0x12
	TypeCachedGameData     byte = 0x13
	TypeInformationMessage byte = 0x17
)

// SentinelUserID marks the self-referential request variant of dual-purpose messages:
// an empty name combined with this id means "about me", not a notification about a
// third party.
const SentinelUserID uint16 = 0xFFFF

// SentinelGameID is the request-variant marker for game-scoped dual-purpose messages.
const SentinelGameID uint16 = 0xFFFF

// Message is one protocol message, request or notification flavor.
type Message interface {
	// TypeID returns the 1-byte wire identifier of this message kind.
	TypeID() byte

	// MessageNumber returns the per-connection sequence number.
	MessageNumber() uint16

	// BodyLength returns the encoded body size in bytes, computed from field sizes.
	BodyLength() int

	// WriteBodyTo appends the encoded body to buf.
	WriteBodyTo(buf *bytes.Buffer) error
}

// wireEncoding is the charset used for all strings on the wire.
// The protocol predates UTF-8 emulator clients; Windows-1252 is the de-facto default.
var wireEncoding encoding.Encoding = charmap.Windows1252

// SetCharset selects the wire charset by IANA name. It must be called before any
// traffic is parsed or written; the zero value is Windows-1252.
func SetCharset(name string) error {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return fmt.Errorf("unsupported wire charset %q", name)
	}
	wireEncoding = enc
	return nil
}

// encodeString converts s to wire bytes in the configured charset, without the
// terminating zero byte.
func encodeString(s string) ([]byte, error) {
	out, err := wireEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errs.NewError(errs.ErrMessageFormat, fmt.Sprintf("cannot encode %q in wire charset", s))
	}
	return out, nil
}

// stringBytes returns the on-wire size of s: its encoded bytes plus the stop byte.
// Encoding failures surface later in WriteBodyTo; for sizing, the encoded length of
// ASCII-compatible charsets equals the rune count, and non-encodable strings are
// rejected before messages are built.
func stringBytes(s string) int {
	out, err := encodeString(s)
	if err != nil {
		return len(s) + 1
	}
	return len(out) + 1
}

// writeString appends s in the wire charset followed by a single zero byte.
func writeString(buf *bytes.Buffer, s string) error {
	out, err := encodeString(s)
	if err != nil {
		return err
	}
	buf.Write(out)
	buf.WriteByte(0x00)
	return nil
}

// writeUint16 appends v as a little-endian unsigned short.
func writeUint16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

// writeUint32 appends v as a little-endian unsigned int.
func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}

// bodyReader walks a message body, validating the remaining byte count before
// every read. All read methods fail with a parse error on underflow.
type bodyReader struct {
	buf []byte
	off int
}

func newBodyReader(body []byte) *bodyReader {
	return &bodyReader{buf: body}
}

// remaining returns the number of unread bytes.
func (r *bodyReader) remaining() int {
	return len(r.buf) - r.off
}

// require fails unless at least n bytes remain.
func (r *bodyReader) require(n int) error {
	if r.remaining() < n {
		return errs.NewError(errs.ErrParseTruncated)
	}
	return nil
}

// readByte consumes one byte.
func (r *bodyReader) readByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// readUint16 consumes a little-endian unsigned short.
func (r *bodyReader) readUint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.off]) | uint16(r.buf[r.off+1])<<8
	r.off += 2
	return v, nil
}

// readUint32 consumes a little-endian unsigned int.
func (r *bodyReader) readUint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.off]) | uint32(r.buf[r.off+1])<<8 |
		uint32(r.buf[r.off+2])<<16 | uint32(r.buf[r.off+3])<<24
	r.off += 4
	return v, nil
}

// readString consumes bytes up to (and including) the next zero byte and decodes
// them in the wire charset. A missing terminator is a parse error.
func (r *bodyReader) readString() (string, error) {
	rel := bytes.IndexByte(r.buf[r.off:], 0x00)
	if rel < 0 {
		return "", errs.NewError(errs.ErrParseTruncated)
	}
	raw := r.buf[r.off : r.off+rel]
	r.off += rel + 1

	decoded, err := wireEncoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errs.NewError(errs.ErrParseTruncated)
	}
	return string(decoded), nil
}

// readBytes consumes exactly n bytes.
func (r *bodyReader) readBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ParseMessage decodes one framed message body into its typed representation.
// Unknown type identifiers are a wire-format error local to this message.
func ParseMessage(typeID byte, messageNumber uint16, body []byte) (Message, error) {
	r := newBodyReader(body)

	switch typeID {
	case TypeQuit:
		return parseQuit(messageNumber, r)
	case TypeUserJoined:
		return parseUserJoined(messageNumber, r)
	case TypeUserInformation:
		return parseUserInformation(messageNumber, r)
	case TypeServerStatus:
		return parseServerStatus(messageNumber, r)
	case TypeServerAck:
		return parseServerAck(messageNumber, r)
	case TypeClientAck:
		return parseClientAck(messageNumber, r)
	case TypeChat:
		return parseChat(messageNumber, r)
	case TypeGameChat:
		return parseGameChat(messageNumber, r)
	case TypeKeepAlive:
		return parseKeepAlive(messageNumber, r)
	case TypeCreateGame:
		return parseCreateGame(messageNumber, r)
	case TypeQuitGame:
		return parseQuitGame(messageNumber, r)
	case TypeJoinGame:
		return parseJoinGame(messageNumber, r)
	case TypePlayerInformation:
		return parsePlayerInformation(messageNumber, r)
	case TypeGameStatus:
		return parseGameStatus(messageNumber, r)
	case TypeCloseGame:
		return parseCloseGame(messageNumber, r)
	case TypeGameData:
		return parseGameData(messageNumber, r)
	case TypeCachedGameData:
		return parseCachedGameData(messageNumber, r)
	case TypeInformationMessage:
		return parseInformationMessage(messageNumber, r)
	default:
		return nil, errs.NewError(errs.ErrUnknownMessageType, typeID)
	}
}
