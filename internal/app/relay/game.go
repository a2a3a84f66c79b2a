package relay

import (
	"fmt"
	"sync"
	"time"
)

// Game lifecycle statuses.
const (
	GameWaiting       byte = 0
	GamePlaying       byte = 1
	GameSynchronizing byte = 2
)

// MaxPlayers bounds a game's occupancy; the protocol reports it as one byte.
const MaxPlayers = 8

// Game is one open game room. The owner is the player that created it; the
// game closes when the owner leaves. While playing, per-player input queues
// are merged into synchronized frames.
type Game struct {
	ID      uint16
	RomName string
	Owner   *User

	mu           sync.Mutex
	players      []*User
	status       byte
	startTimeout bool
	createdAt    time.Time

	// One pending-input queue per player, indexed in join order.
	actions [][][]byte
}

func newGame(id uint16, romName string, owner *User) *Game {
	return &Game{
		ID:        id,
		RomName:   romName,
		Owner:     owner,
		status:    GameWaiting,
		createdAt: time.Now(),
	}
}

func (g *Game) Status() byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Players returns a snapshot of the game's members in join order.
func (g *Game) Players() []*User {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*User, len(g.players))
	copy(out, g.players)
	return out
}

func (g *Game) NumPlayers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// OccupancyLabel renders occupancy the way status dumps expect it.
func (g *Game) OccupancyLabel() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("%d/%d", len(g.players), MaxPlayers)
}

// StartTimedOut reports whether the game has sat unstarted past the grace
// period. The flag latches once set.
func (g *Game) StartTimedOut() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startTimeout
}

func (g *Game) markStartTimeout(grace time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == GameWaiting && !g.startTimeout && time.Since(g.createdAt) > grace {
		g.startTimeout = true
	}
}

func (g *Game) addPlayer(u *User) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.players) >= MaxPlayers {
		return false
	}
	g.players = append(g.players, u)
	return true
}

func (g *Game) removePlayer(u *User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.players {
		if p == u {
			g.players = append(g.players[:i], g.players[i+1:]...)
			if g.actions != nil {
				g.actions = append(g.actions[:i], g.actions[i+1:]...)
			}
			return
		}
	}
}

func (g *Game) hasPlayer(u *User) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p == u {
			return true
		}
	}
	return false
}

// addData queues one player's input chunk. When every player has contributed,
// the oldest chunk of each is concatenated in join order into one synchronized
// frame, which is returned for fan-out; otherwise the frame is not yet ready
// and nil is returned. The first chunk moves the game out of WAITING.
func (g *Game) addData(u *User, data []byte) (frame []byte, started bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == GameWaiting {
		g.status = GamePlaying
		started = true
	}
	if g.actions == nil {
		g.actions = make([][][]byte, len(g.players))
	}

	for i, p := range g.players {
		if p != u {
			continue
		}
		chunk := make([]byte, len(data))
		copy(chunk, data)
		g.actions[i] = append(g.actions[i], chunk)
		break
	}

	for _, q := range g.actions {
		if len(q) == 0 {
			return nil, started
		}
	}
	for i, q := range g.actions {
		frame = append(frame, q[0]...)
		g.actions[i] = q[1:]
	}
	return frame, started
}

// addEvent fans an event to every player in the game.
func (g *Game) addEvent(e Event) {
	for _, p := range g.Players() {
		p.AddEvent(e)
	}
}
