/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file defines the game-lifecycle messages: create (0x0A), join (0x0C), quit-game
(0x0B), the player roster (0x0D), game status updates (0x0E), and close (0x10).
Create, join, and quit-game follow the dual request/notification pattern, selected by
decoded sentinel values.
*/
package protocol

import (
	"bytes"
	"fmt"

	"krelay/internal/pkg/errs"
)

// CreateGameRequest asks the server to open a new game for the named ROM.
type CreateGameRequest struct {
	Number  uint16
	RomName string
}

// CreateGameNotification announces a newly opened game to every client.
type CreateGameNotification struct {
	Number     uint16
	Username   string
	RomName    string
	ClientType string
	GameID     uint16
	Val1       uint16
}

// JoinGameRequest asks the server to add the sender to an existing game.
type JoinGameRequest struct {
	Number         uint16
	GameID         uint16
	ConnectionType byte
}

// JoinGameNotification announces a user joining a game to that game's members.
type JoinGameNotification struct {
	Number         uint16
	GameID         uint16
	Username       string
	Ping           uint32
	UserID         uint16
	ConnectionType byte
}

// QuitGameRequest asks the server to remove the sender from its current game.
type QuitGameRequest struct {
	Number uint16
}

// QuitGameNotification announces a player leaving a game.
type QuitGameNotification struct {
	Number   uint16
	Username string
	UserID   uint16
}

// PlayerEntry is one player in a PlayerInformation roster.
type PlayerEntry struct {
	Username       string
	Ping           uint32
	UserID         uint16
	ConnectionType byte
}

// PlayerInformation carries the roster of a game's existing players, sent to a
// user as it joins.
type PlayerInformation struct {
	Number  uint16
	Players []PlayerEntry
}

// GameStatus reports a game's lifecycle state and occupancy.
type GameStatus struct {
	Number     uint16
	GameID     uint16
	Val1       uint16
	Status     byte
	NumPlayers byte
	MaxPlayers byte
}

// CloseGame announces a game's removal to every client.
type CloseGame struct {
	Number uint16
	GameID uint16
	Val1   uint16
}

func (m CreateGameRequest) TypeID() byte          { return TypeCreateGame }
func (m CreateGameRequest) MessageNumber() uint16 { return m.Number }
func (m CreateGameNotification) TypeID() byte          { return TypeCreateGame }
func (m CreateGameNotification) MessageNumber() uint16 { return m.Number }
func (m JoinGameRequest) TypeID() byte          { return TypeJoinGame }
func (m JoinGameRequest) MessageNumber() uint16 { return m.Number }
func (m JoinGameNotification) TypeID() byte          { return TypeJoinGame }
func (m JoinGameNotification) MessageNumber() uint16 { return m.Number }
func (m QuitGameRequest) TypeID() byte          { return TypeQuitGame }
func (m QuitGameRequest) MessageNumber() uint16 { return m.Number }
func (m QuitGameNotification) TypeID() byte          { return TypeQuitGame }
func (m QuitGameNotification) MessageNumber() uint16 { return m.Number }
func (m PlayerInformation) TypeID() byte          { return TypePlayerInformation }
func (m PlayerInformation) MessageNumber() uint16 { return m.Number }
func (m GameStatus) TypeID() byte          { return TypeGameStatus }
func (m GameStatus) MessageNumber() uint16 { return m.Number }
func (m CloseGame) TypeID() byte          { return TypeCloseGame }
func (m CloseGame) MessageNumber() uint16 { return m.Number }

func (m CreateGameRequest) BodyLength() int {
	return stringBytes("") + stringBytes(m.RomName) + stringBytes("") + 2 + 2
}

func (m CreateGameRequest) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, ""); err != nil {
		return err
	}
	if err := writeString(buf, m.RomName); err != nil {
		return err
	}
	if err := writeString(buf, ""); err != nil {
		return err
	}
	writeUint16(buf, SentinelGameID)
	writeUint16(buf, SentinelGameID)
	return nil
}

func (m CreateGameNotification) BodyLength() int {
	return stringBytes(m.Username) + stringBytes(m.RomName) + stringBytes(m.ClientType) + 2 + 2
}

func (m CreateGameNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "create game notification requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	if err := writeString(buf, m.RomName); err != nil {
		return err
	}
	if err := writeString(buf, m.ClientType); err != nil {
		return err
	}
	writeUint16(buf, m.GameID)
	writeUint16(buf, m.Val1)
	return nil
}

func (m JoinGameRequest) BodyLength() int {
	return 2 + stringBytes("") + 4 + 2 + 1
}

func (m JoinGameRequest) WriteBodyTo(buf *bytes.Buffer) error {
	writeUint16(buf, m.GameID)
	if err := writeString(buf, ""); err != nil {
		return err
	}
	writeUint32(buf, 0)
	writeUint16(buf, SentinelUserID)
	buf.WriteByte(m.ConnectionType)
	return nil
}

func (m JoinGameNotification) BodyLength() int {
	return 2 + stringBytes(m.Username) + 4 + 2 + 1
}

func (m JoinGameNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "join game notification requires a username")
	}
	writeUint16(buf, m.GameID)
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	writeUint32(buf, m.Ping)
	writeUint16(buf, m.UserID)
	buf.WriteByte(m.ConnectionType)
	return nil
}

func (m QuitGameRequest) BodyLength() int { return stringBytes("") + 2 }

func (m QuitGameRequest) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, ""); err != nil {
		return err
	}
	writeUint16(buf, SentinelUserID)
	return nil
}

func (m QuitGameNotification) BodyLength() int { return stringBytes(m.Username) + 2 }

func (m QuitGameNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "quit game notification requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	writeUint16(buf, m.UserID)
	return nil
}

func (m PlayerInformation) BodyLength() int {
	n := 1 + 4
	for _, p := range m.Players {
		n += stringBytes(p.Username) + 4 + 2 + 1
	}
	return n
}

func (m PlayerInformation) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	writeUint32(buf, uint32(len(m.Players)))
	for _, p := range m.Players {
		if err := writeString(buf, p.Username); err != nil {
			return err
		}
		writeUint32(buf, p.Ping)
		writeUint16(buf, p.UserID)
		buf.WriteByte(p.ConnectionType)
	}
	return nil
}

func (m GameStatus) BodyLength() int { return 1 + 2 + 2 + 1 + 1 + 1 }

func (m GameStatus) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	writeUint16(buf, m.GameID)
	writeUint16(buf, m.Val1)
	buf.WriteByte(m.Status)
	buf.WriteByte(m.NumPlayers)
	buf.WriteByte(m.MaxPlayers)
	return nil
}

func (m CloseGame) BodyLength() int { return 1 + 2 + 2 }

func (m CloseGame) WriteBodyTo(buf *bytes.Buffer) error {
	buf.WriteByte(0x00)
	writeUint16(buf, m.GameID)
	writeUint16(buf, m.Val1)
	return nil
}

// parseCreateGame decodes either CreateGame variant: an empty username plus both
// sentinel ids marks the request.
func parseCreateGame(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(8); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(7); err != nil {
		return nil, err
	}
	romName, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(6); err != nil {
		return nil, err
	}
	clientType, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(4); err != nil {
		return nil, err
	}
	gameID, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	val1, err := r.readUint16()
	if err != nil {
		return nil, err
	}

	if username == "" && gameID == SentinelGameID && val1 == SentinelGameID {
		return CreateGameRequest{Number: messageNumber, RomName: romName}, nil
	}
	return CreateGameNotification{
		Number:     messageNumber,
		Username:   username,
		RomName:    romName,
		ClientType: clientType,
		GameID:     gameID,
		Val1:       val1,
	}, nil
}

// parseJoinGame decodes either JoinGame variant: an empty username plus the
// sentinel user id marks the request.
func parseJoinGame(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(10); err != nil {
		return nil, err
	}
	gameID, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(7); err != nil {
		return nil, err
	}
	ping, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	userID, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	connectionType, err := r.readByte()
	if err != nil {
		return nil, err
	}

	if username == "" && userID == SentinelUserID {
		return JoinGameRequest{
			Number:         messageNumber,
			GameID:         gameID,
			ConnectionType: connectionType,
		}, nil
	}
	return JoinGameNotification{
		Number:         messageNumber,
		GameID:         gameID,
		Username:       username,
		Ping:           ping,
		UserID:         userID,
		ConnectionType: connectionType,
	}, nil
}

// parseQuitGame decodes either QuitGame variant, selecting by the sentinel rule.
func parseQuitGame(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(3); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	userID, err := r.readUint16()
	if err != nil {
		return nil, err
	}

	if username == "" && userID == SentinelUserID {
		return QuitGameRequest{Number: messageNumber}, nil
	}
	return QuitGameNotification{Number: messageNumber, Username: username, UserID: userID}, nil
}

func parsePlayerInformation(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(5); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}

	roster := PlayerInformation{Number: messageNumber}
	for i := uint32(0); i < count; i++ {
		if err := r.require(8); err != nil {
			return nil, err
		}
		var p PlayerEntry
		if p.Username, err = r.readString(); err != nil {
			return nil, err
		}
		if p.Ping, err = r.readUint32(); err != nil {
			return nil, err
		}
		if p.UserID, err = r.readUint16(); err != nil {
			return nil, err
		}
		if p.ConnectionType, err = r.readByte(); err != nil {
			return nil, err
		}
		roster.Players = append(roster.Players, p)
	}
	return roster, nil
}

func parseGameStatus(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(8); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	status := GameStatus{Number: messageNumber}
	var err error
	if status.GameID, err = r.readUint16(); err != nil {
		return nil, err
	}
	if status.Val1, err = r.readUint16(); err != nil {
		return nil, err
	}
	if status.Status, err = r.readByte(); err != nil {
		return nil, err
	}
	if status.NumPlayers, err = r.readByte(); err != nil {
		return nil, err
	}
	if status.MaxPlayers, err = r.readByte(); err != nil {
		return nil, err
	}
	return status, nil
}

func parseCloseGame(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(5); err != nil {
		return nil, err
	}
	if _, err := r.readByte(); err != nil {
		return nil, err
	}
	closeGame := CloseGame{Number: messageNumber}
	var err error
	if closeGame.GameID, err = r.readUint16(); err != nil {
		return nil, err
	}
	if closeGame.Val1, err = r.readUint16(); err != nil {
		return nil, err
	}
	return closeGame, nil
}

func (m CreateGameNotification) String() string {
	return fmt.Sprintf("CreateGameNotification[username=%q romName=%q gameID=%d]",
		m.Username, m.RomName, m.GameID)
}

func (m JoinGameNotification) String() string {
	return fmt.Sprintf("JoinGameNotification[gameID=%d username=%q userID=%d]",
		m.GameID, m.Username, m.UserID)
}
