/*
Package social broadcasts looking-for-game notices for freshly created games.

A notice is not sent immediately: the reporter starts a timer per game owner so
a game that fills up or closes right away never gets broadcast. When the timer
fires, the notice goes out and the owner's game receives a confirmation line.
*/
package social

import (
	"sync"
	"time"

	"krelay/internal/pkg/logx"
)

// Reporter is consulted by the registry when games are created and torn down.
type Reporter interface {
	// ReportAndStartTimer schedules a looking-for-game broadcast for a new game.
	ReportAndStartTimer(gameID uint16, title string, userID uint16, username string)

	// CancelActionsForUser drops any broadcast still pending for the user.
	CancelActionsForUser(userID uint16)
}

// PostedFunc is called after a broadcast goes out, so the registry can drop a
// confirmation line into the game.
type PostedFunc func(gameID uint16, message string)

// Broadcaster is the logging Reporter. It writes the notice to the server log;
// a real social backend would post it outward instead.
type Broadcaster struct {
	delay  time.Duration
	posted PostedFunc

	mu      sync.Mutex
	pending map[uint16]*time.Timer
}

// NewBroadcaster returns a Broadcaster that waits delay before each broadcast.
// posted may be nil.
func NewBroadcaster(delay time.Duration, posted PostedFunc) *Broadcaster {
	return &Broadcaster{
		delay:   delay,
		posted:  posted,
		pending: make(map[uint16]*time.Timer),
	}
}

func (b *Broadcaster) ReportAndStartTimer(gameID uint16, title string, userID uint16, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.pending[userID]; ok {
		prev.Stop()
	}
	b.pending[userID] = time.AfterFunc(b.delay, func() {
		b.mu.Lock()
		delete(b.pending, userID)
		b.mu.Unlock()

		logx.Info("looking-for-game broadcast",
			"gameID", gameID, "title", title, "username", username)
		if b.posted != nil {
			b.posted(gameID, "Broadcast sent: waiting for players in "+title)
		}
	})
}

func (b *Broadcaster) CancelActionsForUser(userID uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if timer, ok := b.pending[userID]; ok {
		timer.Stop()
		delete(b.pending, userID)
	}
}

// PendingCount reports how many broadcasts are waiting on their timers.
func (b *Broadcaster) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
