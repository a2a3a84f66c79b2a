package dispatch

import (
	"errors"
	"fmt"
	"time"

	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
	"krelay/internal/configs"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/logx"
)

// serverSource attributes server notices on the wire.
const serverSource = "server"

// Action performs the registry transition for one inbound message kind.
type Action interface {
	// Name identifies the action in logs and counters.
	Name() string

	// Perform executes the transition. A CustomError return is a denial fed
	// back to the client; ErrFatalAction codes terminate the connection.
	Perform(sess *Session, msg protocol.Message) error

	// Count returns how many times the action has run.
	Count() uint64
}

// EventHandler renders one registry event kind as outbound messages.
type EventHandler interface {
	// Name identifies the handler in logs and counters.
	Name() string

	// Handle renders the event for one session. Build failures are logged and
	// the event dropped; events never kill a connection.
	Handle(sess *Session, e relay.Event)

	// Count returns how many times the handler has run.
	Count() uint64
}

// Dispatcher owns the action and event-handler tables.
type Dispatcher struct {
	server   *relay.Server
	cfg      *configs.AppConfig
	actions  map[byte]Action
	handlers map[string][]EventHandler
}

// NewDispatcher builds the tables. They are immutable afterwards, so dispatch
// needs no locking.
func NewDispatcher(server *relay.Server, cfg *configs.AppConfig) *Dispatcher {
	d := &Dispatcher{
		server:   server,
		cfg:      cfg,
		actions:  make(map[byte]Action),
		handlers: make(map[string][]EventHandler),
	}

	register := func(typeID byte, a Action) {
		d.actions[typeID] = a
	}
	register(protocol.TypeUserInformation, &loginAction{d: d})
	register(protocol.TypeClientAck, &ackAction{d: d})
	register(protocol.TypeChat, &chatAction{d: d})
	register(protocol.TypeGameChat, &gameChatAction{d: d})
	register(protocol.TypeKeepAlive, &keepAliveAction{d: d})
	register(protocol.TypeCreateGame, &createGameAction{d: d})
	register(protocol.TypeJoinGame, &joinGameAction{d: d})
	register(protocol.TypeQuitGame, &quitGameAction{d: d})
	register(protocol.TypeQuit, &quitAction{d: d})
	register(protocol.TypeGameData, &gameDataAction{d: d})
	register(protocol.TypeCachedGameData, &cachedGameDataAction{d: d})

	subscribe := func(h EventHandler, names ...string) {
		for _, n := range names {
			d.handlers[n] = append(d.handlers[n], h)
		}
	}
	subscribe(&serverEventHandler{d: d},
		"user-joined", "user-quit", "chat", "info-message",
		"game-created", "game-closed", "game-status")
	subscribe(&gameEventHandler{d: d},
		"game-chat", "player-joined", "player-quit", "game-data")

	return d
}

// Dispatch routes one inbound message to its action. The returned error is
// fatal to the connection; denials have already been answered on the wire.
func (d *Dispatcher) Dispatch(sess *Session, msg protocol.Message) error {
	action, ok := d.actions[msg.TypeID()]
	if !ok {
		// Notification flavors and server-only kinds are never valid inbound.
		logx.Warn("no action for inbound message",
			"typeID", fmt.Sprintf("0x%02X", msg.TypeID()), "addr", sess.Addr())
		return nil
	}

	err := action.Perform(sess, msg)
	if err == nil {
		return nil
	}
	if errs.IsCode(err, errs.ErrFatalAction) {
		return err
	}

	var denial *errs.CustomError
	if errors.As(err, &denial) {
		logx.Debug("request denied", "action", action.Name(),
			"addr", sess.Addr(), "code", denial.Code, "reason", denial.Message)
		sess.Send(protocol.InformationMessage{
			Source:  serverSource,
			Message: denial.Message,
		})
		return nil
	}
	return err
}

// HandleEvent renders one registry event for a session, honoring any pacing
// hint the publisher attached.
func (d *Dispatcher) HandleEvent(sess *Session, e relay.Event) {
	if paced, ok := e.(relay.PacedEvent); ok {
		if paced.Delay > 0 {
			time.Sleep(paced.Delay)
		}
		e = paced.Event
	}
	for _, h := range d.handlers[e.EventName()] {
		h.Handle(sess, e)
	}
}

// ServerStatusSnapshot renders the current roster for the login handshake.
func (d *Dispatcher) ServerStatusSnapshot() protocol.ServerStatus {
	var status protocol.ServerStatus
	for _, u := range d.server.Users() {
		if !u.LoggedIn() {
			continue
		}
		status.Users = append(status.Users, protocol.StatusUser{
			Username:       u.Name(),
			Ping:           u.Ping(),
			Status:         u.Status(),
			UserID:         u.ID,
			ConnectionType: u.ConnectionType(),
		})
	}
	for _, g := range d.server.Games() {
		status.Games = append(status.Games, protocol.StatusGame{
			GameName:   g.RomName,
			GameID:     g.ID,
			ClientType: g.Owner.ClientType(),
			Owner:      g.Owner.Name(),
			Players:    g.OccupancyLabel(),
			Status:     g.Status(),
		})
	}
	return status
}

// fatalMismatch reports an inbound message whose concrete type does not match
// its action, which only a broken or hostile client produces.
func fatalMismatch(name string, msg protocol.Message) error {
	return errs.NewError(errs.ErrFatalAction,
		fmt.Sprintf("%s received %T", name, msg))
}
