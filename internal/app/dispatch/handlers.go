package dispatch

import (
	"sync/atomic"

	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
	"krelay/internal/pkg/logx"
)

// serverEventHandler renders lobby-scoped registry events.
type serverEventHandler struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (h *serverEventHandler) Name() string  { return "server-events" }
func (h *serverEventHandler) Count() uint64 { return h.count.Load() }

func (h *serverEventHandler) Handle(sess *Session, e relay.Event) {
	h.count.Add(1)
	switch ev := e.(type) {
	case relay.UserJoinedEvent:
		sess.Send(protocol.UserJoined{
			Username:       ev.User.Name(),
			UserID:         ev.User.ID,
			Ping:           ev.User.Ping(),
			ConnectionType: ev.User.ConnectionType(),
		})
	case relay.UserQuitEvent:
		sess.Send(protocol.QuitNotification{
			Username: ev.User.Name(),
			UserID:   ev.User.ID,
			Message:  ev.Message,
		})
	case relay.ChatEvent:
		sess.Send(protocol.ChatNotification{
			Username: ev.User.Name(),
			Message:  ev.Message,
		})
	case relay.InfoMessageEvent:
		sess.Send(protocol.InformationMessage{
			Source:  serverSource,
			Message: ev.Message,
		})
	case relay.GameCreatedEvent:
		sess.Send(protocol.CreateGameNotification{
			Username:   ev.Game.Owner.Name(),
			RomName:    ev.Game.RomName,
			ClientType: ev.Game.Owner.ClientType(),
			GameID:     ev.Game.ID,
		})
	case relay.GameClosedEvent:
		sess.Send(protocol.CloseGame{GameID: ev.GameID})
	case relay.GameStatusChangedEvent:
		sess.Send(protocol.GameStatus{
			GameID:     ev.Game.ID,
			Status:     ev.Game.Status(),
			NumPlayers: byte(ev.Game.NumPlayers()),
			MaxPlayers: relay.MaxPlayers,
		})
	default:
		logx.Warn("server event handler got unexpected event", "event", e.EventName())
	}
}

// gameEventHandler renders game-scoped registry events, including the outbound
// side of game-data de-duplication.
type gameEventHandler struct {
	d     *Dispatcher
	count atomic.Uint64
}

func (h *gameEventHandler) Name() string  { return "game-events" }
func (h *gameEventHandler) Count() uint64 { return h.count.Load() }

func (h *gameEventHandler) Handle(sess *Session, e relay.Event) {
	h.count.Add(1)
	switch ev := e.(type) {
	case relay.GameChatEvent:
		username := serverSource
		if ev.User != nil {
			username = ev.User.Name()
		}
		sess.Send(protocol.GameChatNotification{Username: username, Message: ev.Message})
	case relay.PlayerJoinedEvent:
		sess.Send(protocol.JoinGameNotification{
			GameID:         ev.Game.ID,
			Username:       ev.User.Name(),
			Ping:           ev.User.Ping(),
			UserID:         ev.User.ID,
			ConnectionType: ev.User.ConnectionType(),
		})
	case relay.PlayerQuitEvent:
		sess.Send(protocol.QuitGameNotification{
			Username: ev.User.Name(),
			UserID:   ev.User.ID,
		})
	case relay.GameDataEvent:
		h.sendGameData(sess, ev.Data)
	default:
		logx.Warn("game event handler got unexpected event", "event", e.EventName())
	}
}

// sendGameData sends a frame by cache key when both sides have seen it before,
// falling back to the raw payload on a first sighting.
func (h *gameEventHandler) sendGameData(sess *Session, frame []byte) {
	if key := sess.outCache.IndexOf(frame); key >= 0 {
		sess.Send(protocol.CachedGameData{Key: byte(key)})
		return
	}
	sess.outCache.Add(frame)
	sess.Send(protocol.GameData{Data: frame})
}
