/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file defines the session-establishment messages: the login request
(UserInformation, 0x03), the server-wide join announcement (UserJoined, 0x02), the
ack handshake pair (0x05/0x06), keepalive (0x09), and the full server status dump
(0x04) sent after the handshake completes.
*/
package protocol

import (
	"bytes"
	"fmt"

	"krelay/internal/pkg/errs"
)

// UserInformation is the login request: the client introduces its display name,
// emulator client string, and requested connection type.
type UserInformation struct {
	Number         uint16
	Username       string
	ClientType     string
	ConnectionType byte
}

// UserJoined announces a freshly logged-in user to every client.
type UserJoined struct {
	Number         uint16
	Username       string
	UserID         uint16
	Ping           uint32
	ConnectionType byte
}

// ServerAck is the server's half of the ping-measurement handshake.
type ServerAck struct {
	Number uint16
}

// ClientAck is the client's half of the ping-measurement handshake.
type ClientAck struct {
	Number uint16
}

// KeepAlive is the client's periodic liveness beacon.
type KeepAlive struct {
	Number uint16
	Value  byte
}

// StatusUser is one user entry in a ServerStatus dump.
type StatusUser struct {
	Username       string
	Ping           uint32
	Status         byte
	UserID         uint16
	ConnectionType byte
}

// StatusGame is one game entry in a ServerStatus dump.
type StatusGame struct {
	GameName   string
	GameID     uint16
	ClientType string
	Owner      string
	Players    string
	Status     byte
}

// ServerStatus is the roster snapshot sent once after login: all logged-in users
// and all open games.
type ServerStatus struct {
	Number uint16
	Users  []StatusUser
	Games  []StatusGame
}

func (m UserInformation) TypeID() byte          { return TypeUserInformation }
func (m UserInformation) MessageNumber() uint16 { return m.Number }
func (m UserJoined) TypeID() byte          { return TypeUserJoined }
func (m UserJoined) MessageNumber() uint16 { return m.Number }
func (m ServerAck) TypeID() byte          { return TypeServerAck }
func (m ServerAck) MessageNumber() uint16 { return m.Number }
func (m ClientAck) TypeID() byte          { return TypeClientAck }
func (m ClientAck) MessageNumber() uint16 { return m.Number }
func (m KeepAlive) TypeID() byte          { return TypeKeepAlive }
func (m KeepAlive) MessageNumber() uint16 { return m.Number }
func (m ServerStatus) TypeID() byte          { return TypeServerStatus }
func (m ServerStatus) MessageNumber() uint16 { return m.Number }

func (m UserInformation) BodyLength() int {
	return stringBytes(m.Username) + stringBytes(m.ClientType) + 1
}

func (m UserInformation) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	if err := writeString(buf, m.ClientType); err != nil {
		return err
	}
	buf.WriteByte(m.ConnectionType)
	return nil
}

func (m UserJoined) BodyLength() int {
	return stringBytes(m.Username) + 2 + 4 + 1
}

func (m UserJoined) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "user joined requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	writeUint16(buf, m.UserID)
	writeUint32(buf, m.Ping)
	buf.WriteByte(m.ConnectionType)
	return nil
}

// The ack body is a fixed 17-byte pattern: a zero byte followed by the
// little-endian constants 0..3. Clients echo it back unchanged.
func ackBodyLength() int { return 17 }

func writeAckBody(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	for i := uint32(0); i < 4; i++ {
		writeUint32(buf, i)
	}
	return nil
}

func parseAckBody(r *bodyReader) error {
	if err := r.require(17); err != nil {
		return err
	}
	if _, err := r.readByte(); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if _, err := r.readUint32(); err != nil {
			return err
		}
	}
	return nil
}

func (m ServerAck) BodyLength() int                      { return ackBodyLength() }
func (m ServerAck) WriteBodyTo(buf *bytes.Buffer) error  { return writeAckBody(buf) }
func (m ClientAck) BodyLength() int                      { return ackBodyLength() }
func (m ClientAck) WriteBodyTo(buf *bytes.Buffer) error  { return writeAckBody(buf) }

func (m KeepAlive) BodyLength() int { return 1 }

func (m KeepAlive) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(m.Value)
	return nil
}

func (m ServerStatus) BodyLength() int {
	n := 1 + 4 + 4
	for _, u := range m.Users {
		n += stringBytes(u.Username) + 4 + 1 + 2 + 1
	}
	for _, g := range m.Games {
		n += stringBytes(g.GameName) + 2 + stringBytes(g.ClientType) +
			stringBytes(g.Owner) + stringBytes(g.Players) + 1
	}
	return n
}

func (m ServerStatus) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	writeUint32(buf, uint32(len(m.Users)))
	writeUint32(buf, uint32(len(m.Games)))

	for _, u := range m.Users {
		if err := writeString(buf, u.Username); err != nil {
			return err
		}
		writeUint32(buf, u.Ping)
		buf.WriteByte(u.Status)
		writeUint16(buf, u.UserID)
		buf.WriteByte(u.ConnectionType)
	}

	for _, g := range m.Games {
		if err := writeString(buf, g.GameName); err != nil {
			return err
		}
		writeUint16(buf, g.GameID)
		if err := writeString(buf, g.ClientType); err != nil {
			return err
		}
		if err := writeString(buf, g.Owner); err != nil {
			return err
		}
		if err := writeString(buf, g.Players); err != nil {
			return err
		}
		buf.WriteByte(g.Status)
	}
	return nil
}

func parseUserInformation(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(3); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(2); err != nil {
		return nil, err
	}
	clientType, err := r.readString()
	if err != nil {
		return nil, err
	}
	connectionType, err := r.readByte()
	if err != nil {
		return nil, err
	}
	return UserInformation{
		Number:         messageNumber,
		Username:       username,
		ClientType:     clientType,
		ConnectionType: connectionType,
	}, nil
}

func parseUserJoined(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(9); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(7); err != nil {
		return nil, err
	}
	userID, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	ping, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	connectionType, err := r.readByte()
	if err != nil {
		return nil, err
	}
	return UserJoined{
		Number:         messageNumber,
		Username:       username,
		UserID:         userID,
		Ping:           ping,
		ConnectionType: connectionType,
	}, nil
}

func parseServerAck(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := parseAckBody(r); err != nil {
		return nil, err
	}
	return ServerAck{Number: messageNumber}, nil
}

func parseClientAck(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := parseAckBody(r); err != nil {
		return nil, err
	}
	return ClientAck{Number: messageNumber}, nil
}

func parseKeepAlive(messageNumber uint16, r *bodyReader) (Message, error) {
	value, err := r.readByte()
	if err != nil {
		return nil, err
	}
	return KeepAlive{Number: messageNumber, Value: value}, nil
}

func parseServerStatus(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(9); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	numUsers, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	numGames, err := r.readUint32()
	if err != nil {
		return nil, err
	}

	status := ServerStatus{Number: messageNumber}
	for i := uint32(0); i < numUsers; i++ {
		if err := r.require(9); err != nil {
			return nil, err
		}
		var u StatusUser
		if u.Username, err = r.readString(); err != nil {
			return nil, err
		}
		if u.Ping, err = r.readUint32(); err != nil {
			return nil, err
		}
		if u.Status, err = r.readByte(); err != nil {
			return nil, err
		}
		if u.UserID, err = r.readUint16(); err != nil {
			return nil, err
		}
		if u.ConnectionType, err = r.readByte(); err != nil {
			return nil, err
		}
		status.Users = append(status.Users, u)
	}
	for i := uint32(0); i < numGames; i++ {
		if err := r.require(7); err != nil {
			return nil, err
		}
		var g StatusGame
		if g.GameName, err = r.readString(); err != nil {
			return nil, err
		}
		if g.GameID, err = r.readUint16(); err != nil {
			return nil, err
		}
		if g.ClientType, err = r.readString(); err != nil {
			return nil, err
		}
		if g.Owner, err = r.readString(); err != nil {
			return nil, err
		}
		if g.Players, err = r.readString(); err != nil {
			return nil, err
		}
		if g.Status, err = r.readByte(); err != nil {
			return nil, err
		}
		status.Games = append(status.Games, g)
	}
	return status, nil
}

func (m UserInformation) String() string {
	return fmt.Sprintf("UserInformation[username=%q clientType=%q connectionType=%d]",
		m.Username, m.ClientType, m.ConnectionType)
}
