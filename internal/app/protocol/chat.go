/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file defines the chat-family messages: server chat (0x07), in-game chat (0x08),
and the server-sourced information message (0x17). The chat kinds reuse the quit
pattern of request/notification sharing a wire type, disambiguated here by an empty
username on the request flavor.
*/
package protocol

import (
	"bytes"
	"fmt"

	"krelay/internal/pkg/errs"
)

// ChatRequest is a client's request to broadcast a lobby chat line.
type ChatRequest struct {
	Number  uint16
	Message string
}

// ChatNotification relays a user's lobby chat line to every client.
type ChatNotification struct {
	Number   uint16
	Username string
	Message  string
}

// GameChatRequest is a client's request to chat inside its current game.
type GameChatRequest struct {
	Number  uint16
	Message string
}

// GameChatNotification relays an in-game chat line to a game's members.
type GameChatNotification struct {
	Number   uint16
	Username string
	Message  string
}

// InformationMessage is a server-to-client notice with a named source
// ("server" for registry notices).
type InformationMessage struct {
	Number  uint16
	Source  string
	Message string
}

func (m ChatRequest) TypeID() byte          { return TypeChat }
func (m ChatRequest) MessageNumber() uint16 { return m.Number }
func (m ChatNotification) TypeID() byte          { return TypeChat }
func (m ChatNotification) MessageNumber() uint16 { return m.Number }
func (m GameChatRequest) TypeID() byte          { return TypeGameChat }
func (m GameChatRequest) MessageNumber() uint16 { return m.Number }
func (m GameChatNotification) TypeID() byte          { return TypeGameChat }
func (m GameChatNotification) MessageNumber() uint16 { return m.Number }
func (m InformationMessage) TypeID() byte          { return TypeInformationMessage }
func (m InformationMessage) MessageNumber() uint16 { return m.Number }

func (m ChatRequest) BodyLength() int { return stringBytes("") + stringBytes(m.Message) }

func (m ChatRequest) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, ""); err != nil {
		return err
	}
	return writeString(buf, m.Message)
}

func (m ChatNotification) BodyLength() int {
	return stringBytes(m.Username) + stringBytes(m.Message)
}

func (m ChatNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "chat notification requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	return writeString(buf, m.Message)
}

func (m GameChatRequest) BodyLength() int { return stringBytes("") + stringBytes(m.Message) }

func (m GameChatRequest) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, ""); err != nil {
		return err
	}
	return writeString(buf, m.Message)
}

func (m GameChatNotification) BodyLength() int {
	return stringBytes(m.Username) + stringBytes(m.Message)
}

func (m GameChatNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "game chat notification requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	return writeString(buf, m.Message)
}

func (m InformationMessage) BodyLength() int {
	return stringBytes(m.Source) + stringBytes(m.Message)
}

func (m InformationMessage) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, m.Source); err != nil {
		return err
	}
	return writeString(buf, m.Message)
}

// parseChat decodes either Chat variant: an empty username marks the request.
func parseChat(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(2); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	message, err := r.readString()
	if err != nil {
		return nil, err
	}

	if username == "" {
		return ChatRequest{Number: messageNumber, Message: message}, nil
	}
	return ChatNotification{Number: messageNumber, Username: username, Message: message}, nil
}

// parseGameChat decodes either GameChat variant: an empty username marks the request.
func parseGameChat(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(2); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	message, err := r.readString()
	if err != nil {
		return nil, err
	}

	if username == "" {
		return GameChatRequest{Number: messageNumber, Message: message}, nil
	}
	return GameChatNotification{Number: messageNumber, Username: username, Message: message}, nil
}

func parseInformationMessage(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(2); err != nil {
		return nil, err
	}
	source, err := r.readString()
	if err != nil {
		return nil, err
	}
	message, err := r.readString()
	if err != nil {
		return nil, err
	}
	return InformationMessage{Number: messageNumber, Source: source, Message: message}, nil
}

func (m ChatNotification) String() string {
	return fmt.Sprintf("ChatNotification[username=%q message=%q]", m.Username, m.Message)
}
