package dispatch

import (
	"sync/atomic"

	"krelay/internal/app/protocol"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/logx"
)

// cacheMissWarning is the in-game notice for an unresolvable cache key. The
// skipped frame leaves the emulators out of sync, so players deserve to know.
const cacheMissWarning = "Game Data Error!  Game state will be inconsistent!"

type loginAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *loginAction) Name() string  { return "login" }
func (a *loginAction) Count() uint64 { return a.count.Load() }

// Perform opens the login handshake: stash the claimed identity, show the
// roster, and start the first ping-measurement round.
func (a *loginAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	info, ok := msg.(protocol.UserInformation)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}

	sess.pendingName = info.Username
	sess.pendingClient = info.ClientType
	sess.pendingConnType = info.ConnectionType

	sess.Send(a.d.ServerStatusSnapshot())
	sess.Send(protocol.ServerAck{})
	sess.beginAckRound()
	return nil
}

type ackAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *ackAction) Name() string  { return "ack" }
func (a *ackAction) Count() uint64 { return a.count.Load() }

// Perform advances the ping measurement. Once enough rounds have run, the
// averaged latency completes the login; a denial is answered and the
// connection closed.
func (a *ackAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	if _, ok := msg.(protocol.ClientAck); !ok {
		return fatalMismatch(a.Name(), msg)
	}

	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrFatalAction, "ack before handshake")
	}
	if u.LoggedIn() {
		// Post-login acks are latency probes; nothing to do.
		return nil
	}

	ping, done := sess.completeAckRound()
	if !done {
		sess.Send(protocol.ServerAck{})
		sess.beginAckRound()
		return nil
	}

	err := a.d.server.Login(u, sess.pendingName, sess.pendingClient, sess.pendingConnType, ping)
	if err != nil {
		var denial *errs.CustomError
		if errs.IsCode(err, errs.ErrFatalAction) {
			return err
		}
		if ce, ok := err.(*errs.CustomError); ok {
			denial = ce
		}
		reason := "login failed"
		if denial != nil {
			reason = denial.Message
			sess.Send(protocol.InformationMessage{Source: serverSource, Message: reason})
		}
		logx.Info("login denied", "addr", sess.Addr(), "name", sess.pendingName, "reason", reason)
		sess.Close(reason)
	}
	return nil
}

type chatAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *chatAction) Name() string  { return "chat" }
func (a *chatAction) Count() uint64 { return a.count.Load() }

func (a *chatAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.ChatRequest)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	return a.d.server.Chat(u, req.Message)
}

type gameChatAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *gameChatAction) Name() string  { return "game-chat" }
func (a *gameChatAction) Count() uint64 { return a.count.Load() }

func (a *gameChatAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.GameChatRequest)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	return a.d.server.GameChat(u, req.Message)
}

type keepAliveAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *keepAliveAction) Name() string  { return "keepalive" }
func (a *keepAliveAction) Count() uint64 { return a.count.Load() }

func (a *keepAliveAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	if _, ok := msg.(protocol.KeepAlive); !ok {
		return fatalMismatch(a.Name(), msg)
	}
	if u := sess.User(); u != nil {
		a.d.server.KeepAlive(u)
	}
	return nil
}

type createGameAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *createGameAction) Name() string  { return "create-game" }
func (a *createGameAction) Count() uint64 { return a.count.Load() }

func (a *createGameAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.CreateGameRequest)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	_, err := a.d.server.CreateGame(u, req.RomName)
	return err
}

type joinGameAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *joinGameAction) Name() string  { return "join-game" }
func (a *joinGameAction) Count() uint64 { return a.count.Load() }

// Perform admits the user to a game and answers with the roster of the players
// already there; the join announcement itself arrives through the game's
// player-joined event.
func (a *joinGameAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.JoinGameRequest)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}

	g, err := a.d.server.JoinGame(u, req.GameID)
	if err != nil {
		return err
	}

	var roster protocol.PlayerInformation
	for _, p := range g.Players() {
		if p == u || p.Stealth() {
			continue
		}
		roster.Players = append(roster.Players, protocol.PlayerEntry{
			Username:       p.Name(),
			Ping:           p.Ping(),
			UserID:         p.ID,
			ConnectionType: p.ConnectionType(),
		})
	}
	sess.Send(roster)
	return nil
}

type quitGameAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *quitGameAction) Name() string  { return "quit-game" }
func (a *quitGameAction) Count() uint64 { return a.count.Load() }

func (a *quitGameAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	if _, ok := msg.(protocol.QuitGameRequest); !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	return a.d.server.QuitGame(u)
}

type quitAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *quitAction) Name() string  { return "quit" }
func (a *quitAction) Count() uint64 { return a.count.Load() }

func (a *quitAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.QuitRequest)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	if u := sess.User(); u != nil {
		if err := a.d.server.Quit(u, req.Message); err != nil {
			logx.Debug("quit from unauthenticated session", "addr", sess.Addr())
		}
	}
	sess.Close("client quit")
	return nil
}

type gameDataAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *gameDataAction) Name() string  { return "game-data" }
func (a *gameDataAction) Count() uint64 { return a.count.Load() }

// Perform feeds a raw input chunk to the game and remembers it, so the client
// may reference it by key from now on.
func (a *gameDataAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.GameData)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	if sess.inCache.IndexOf(req.Data) < 0 {
		sess.inCache.Add(req.Data)
	}
	return a.d.server.AddGameData(u, req.Data)
}

type cachedGameDataAction struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (a *cachedGameDataAction) Name() string  { return "cached-game-data" }
func (a *cachedGameDataAction) Count() uint64 { return a.count.Load() }

// Perform resolves a cache key to its payload. A miss is survivable: the frame
// is skipped, the player warned, and the session stays open.
func (a *cachedGameDataAction) Perform(sess *Session, msg protocol.Message) error {
	a.count.Add(1)
	req, ok := msg.(protocol.CachedGameData)
	if !ok {
		return fatalMismatch(a.Name(), msg)
	}
	u := sess.User()
	if u == nil {
		return errs.NewError(errs.ErrNotLoggedIn)
	}

	data, ok := sess.inCache.Get(int(req.Key))
	if !ok {
		logx.Debug("game data cache miss", "addr", sess.Addr(), "key", req.Key)
		sess.Send(protocol.GameChatNotification{
			Username: serverSource,
			Message:  cacheMissWarning,
		})
		return nil
	}
	return a.d.server.AddGameData(u, data)
}
