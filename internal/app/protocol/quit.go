/*
Package protocol implements the binary wire codec for the V086-style netplay protocol.

This file defines the Quit message pair. Request and notification share wire type 0x01
and are disambiguated by decoded field values: an empty username together with the
sentinel user id marks a self-quit request; anything else is a notification describing
a third party's departure.
*/
package protocol

import (
	"bytes"
	"fmt"

	"krelay/internal/pkg/errs"
)

// QuitRequest is a client's request to leave the server, carrying its parting message.
type QuitRequest struct {
	Number  uint16
	Message string
}

// QuitNotification announces another user's departure to remaining clients.
type QuitNotification struct {
	Number   uint16
	Username string
	UserID   uint16
	Message  string
}

func (m QuitRequest) TypeID() byte           { return TypeQuit }
func (m QuitRequest) MessageNumber() uint16  { return m.Number }
func (m QuitNotification) TypeID() byte          { return TypeQuit }
func (m QuitNotification) MessageNumber() uint16 { return m.Number }

func (m QuitRequest) BodyLength() int {
	return stringBytes("") + 2 + stringBytes(m.Message)
}

func (m QuitRequest) WriteBodyTo(buf *bytes.Buffer) error {
	if err := writeString(buf, ""); err != nil {
		return err
	}
	writeUint16(buf, SentinelUserID)
	return writeString(buf, m.Message)
}

func (m QuitNotification) BodyLength() int {
	return stringBytes(m.Username) + 2 + stringBytes(m.Message)
}

func (m QuitNotification) WriteBodyTo(buf *bytes.Buffer) error {
	if m.Username == "" {
		return errs.NewError(errs.ErrMessageFormat, "quit notification requires a username")
	}
	if err := writeString(buf, m.Username); err != nil {
		return err
	}
	writeUint16(buf, m.UserID)
	return writeString(buf, m.Message)
}

// parseQuit decodes either Quit variant, selecting by the sentinel rule.
func parseQuit(messageNumber uint16, r *bodyReader) (Message, error) {
	if err := r.require(5); err != nil {
		return nil, err
	}
	username, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.require(3); err != nil {
		return nil, err
	}
	userID, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	message, err := r.readString()
	if err != nil {
		return nil, err
	}

	if username == "" && userID == SentinelUserID {
		return QuitRequest{Number: messageNumber, Message: message}, nil
	}
	return QuitNotification{
		Number:   messageNumber,
		Username: username,
		UserID:   userID,
		Message:  message,
	}, nil
}

func (m QuitRequest) String() string {
	return fmt.Sprintf("QuitRequest[message=%q]", m.Message)
}

func (m QuitNotification) String() string {
	return fmt.Sprintf("QuitNotification[username=%q userID=%d message=%q]", m.Username, m.UserID, m.Message)
}
