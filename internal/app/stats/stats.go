/*
Package stats tracks coarse server occupancy gauges.

The registry publishes user and game counts as sessions change state; the
operator API reads a consistent snapshot for its status report.
*/
package stats

import "sync/atomic"

// Collector receives occupancy updates from the session registry.
type Collector interface {
	// RecordUsers publishes the current idle and playing user counts.
	RecordUsers(idle, playing int)

	// RecordGames publishes the current waiting and playing game counts.
	RecordGames(waiting, playing int)
}

// Summary is one consistent read of the gauges.
type Summary struct {
	UsersIdle    int `json:"usersIdle"`
	UsersPlaying int `json:"usersPlaying"`
	GamesWaiting int `json:"gamesWaiting"`
	GamesPlaying int `json:"gamesPlaying"`
}

// Gauges is the in-process Collector.
type Gauges struct {
	usersIdle    atomic.Int64
	usersPlaying atomic.Int64
	gamesWaiting atomic.Int64
	gamesPlaying atomic.Int64
}

// NewGauges returns a zeroed gauge set.
func NewGauges() *Gauges {
	return &Gauges{}
}

func (g *Gauges) RecordUsers(idle, playing int) {
	g.usersIdle.Store(int64(idle))
	g.usersPlaying.Store(int64(playing))
}

func (g *Gauges) RecordGames(waiting, playing int) {
	g.gamesWaiting.Store(int64(waiting))
	g.gamesPlaying.Store(int64(playing))
}

// Snapshot returns the current gauge values.
func (g *Gauges) Snapshot() Summary {
	return Summary{
		UsersIdle:    int(g.usersIdle.Load()),
		UsersPlaying: int(g.usersPlaying.Load()),
		GamesWaiting: int(g.gamesWaiting.Load()),
		GamesPlaying: int(g.gamesPlaying.Load()),
	}
}
