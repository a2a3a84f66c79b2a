/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file defines the per-frame input payload messages: GameData (0x12) carries a raw
payload, CachedGameData (0x13) carries a single-byte cache key standing in for a
payload both sides have already seen.
*/
package protocol

import (
	"bytes"
	"fmt"
)

// GameData carries one frame's worth of raw input data for a running game.
type GameData struct {
	Number uint16
	Data   []byte
}

// CachedGameData references a previously transferred payload by its cache key.
type CachedGameData struct {
	Number uint16
	Key    byte
}

func (m GameData) TypeID() byte          { return TypeGameData }
func (m GameData) MessageNumber() uint16 { return m.Number }
func (m CachedGameData) TypeID() byte          { return TypeCachedGameData }
func (m CachedGameData) MessageNumber() uint16 { return m.Number }

func (m GameData) BodyLength() int { return 1 + 2 + len(m.Data) }

func (m GameData) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	writeUint16(buf, uint16(len(m.Data)))
	buf.Write(m.Data)
	return nil
}

func (m CachedGameData) BodyLength() int { return 1 + 1 }

func (m CachedGameData) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	buf.WriteByte(m.Key)
	return nil
}

func parseGameData(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(4); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	length, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	raw, err := r.readBytes(int(length))
	if err != nil {
		return nil, err
	}
	data := make([]byte, length)
	copy(data, raw)
	return GameData{Number: messageNumber, Data: data}, nil
}

func parseCachedGameData(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(2); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	key, err := r.readByte()
	if err != nil {
		return nil, err
	}
	return CachedGameData{Number: messageNumber, Key: key}, nil
}

func (m GameData) String() string {
	return fmt.Sprintf("GameData[%d bytes]", len(m.Data))
}

func (m CachedGameData) String() string {
	return fmt.Sprintf("CachedGameData[key=%d]", m.Key)
}
