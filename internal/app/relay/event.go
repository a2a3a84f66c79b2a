/*
Package relay holds the server's session registry: connected users, open games,
and every state transition between them. It is the authority for admission,
login, chat, game lifecycle, and input-data relay; the transport and dispatch
layers translate between its events and the wire.
*/
package relay

import "time"

// Event is a state change fanned out to session queues and monitor subscribers.
type Event interface {
	// EventName identifies the event kind for logs and the monitor feed.
	EventName() string
}

// PacedEvent wraps an event with a delivery pacing hint. The publisher
// enqueues immediately; the delivery side waits out the hint before rendering,
// so scripted sequences never block the publisher.
type PacedEvent struct {
	Event
	Delay time.Duration
}

// UserJoinedEvent announces a completed login to the whole server.
type UserJoinedEvent struct {
	User *User
}

// UserQuitEvent announces a departure to the whole server.
type UserQuitEvent struct {
	User    *User
	Message string
}

// ChatEvent carries a lobby chat line.
type ChatEvent struct {
	User    *User
	Message string
}

// InfoMessageEvent carries a server-sourced notice to one session.
type InfoMessageEvent struct {
	Message string
}

// GameCreatedEvent announces a new game to the whole server.
type GameCreatedEvent struct {
	Game *Game
}

// GameClosedEvent announces a game's removal to the whole server.
type GameClosedEvent struct {
	GameID uint16
}

// GameStatusChangedEvent reports occupancy or lifecycle changes of a game.
type GameStatusChangedEvent struct {
	Game *Game
}

// GameChatEvent carries an in-game chat line to a game's members.
type GameChatEvent struct {
	User    *User
	Message string
}

// PlayerJoinedEvent tells a game's members about a new player.
type PlayerJoinedEvent struct {
	Game *Game
	User *User
}

// PlayerQuitEvent tells a game's members a player left.
type PlayerQuitEvent struct {
	Game *Game
	User *User
}

// GameDataEvent delivers one synchronized frame of combined input data.
type GameDataEvent struct {
	Data []byte
}

func (UserJoinedEvent) EventName() string        { return "user-joined" }
func (UserQuitEvent) EventName() string          { return "user-quit" }
func (ChatEvent) EventName() string              { return "chat" }
func (InfoMessageEvent) EventName() string       { return "info-message" }
func (GameCreatedEvent) EventName() string       { return "game-created" }
func (GameClosedEvent) EventName() string        { return "game-closed" }
func (GameStatusChangedEvent) EventName() string { return "game-status" }
func (GameChatEvent) EventName() string          { return "game-chat" }
func (PlayerJoinedEvent) EventName() string      { return "player-joined" }
func (PlayerQuitEvent) EventName() string        { return "player-quit" }
func (GameDataEvent) EventName() string          { return "game-data" }

// lobbySuppressed lists the events withheld from peer-to-peer clients that are
// in a game: their client drops lobby traffic on the floor anyway, so the
// server saves the bandwidth. Game data is never suppressed.
func lobbySuppressed(e Event) bool {
	switch e.(type) {
	case ChatEvent, UserJoinedEvent, UserQuitEvent,
		GameStatusChangedEvent, GameClosedEvent, GameCreatedEvent:
		return true
	default:
		return false
	}
}
