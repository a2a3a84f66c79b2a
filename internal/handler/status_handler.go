/*
Package handler provides the HTTP handler functions for the operator API.

This file contains the status endpoint, which reports server uptime, the load
gauges, and a snapshot of every connected user and open game.
*/
package handler

import (
	"net/http"

	"krelay/internal/app/relay"
	"krelay/internal/app/stats"
	"krelay/internal/pkg/resp"
)

// UserSummary is one connected session in the status report.
type UserSummary struct {
	ID             uint16 `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Ping           uint32 `json:"ping"`
	ConnectionType byte   `json:"connection_type"`
	Status         string `json:"status"`
	GameID         uint16 `json:"game_id,omitempty"`
}

// GameSummary is one open game in the status report.
type GameSummary struct {
	ID        uint16 `json:"id"`
	RomName   string `json:"rom_name"`
	Owner     string `json:"owner"`
	Status    string `json:"status"`
	Occupancy string `json:"occupancy"`
}

// StatusReport is the full payload of GET /api/status.
type StatusReport struct {
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Gauges        stats.Summary `json:"gauges"`
	Users         []UserSummary `json:"users"`
	Games         []GameSummary `json:"games"`
}

// HandleStatus creates an HTTP HandlerFunc that reports the live server state.
func HandleStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := StatusReport{
			Version:       deps.Version,
			UptimeSeconds: int64(deps.Registry.Uptime().Seconds()),
			Users:         []UserSummary{},
			Games:         []GameSummary{},
		}
		if deps.Gauges != nil {
			report.Gauges = deps.Gauges.Snapshot()
		}

		for _, u := range deps.Registry.Users() {
			summary := UserSummary{
				ID:             u.ID,
				Name:           u.Name(),
				Address:        u.Addr,
				Ping:           u.Ping(),
				ConnectionType: u.ConnectionType(),
				Status:         userStatusLabel(u.Status()),
			}
			if g := u.Game(); g != nil {
				summary.GameID = g.ID
			}
			report.Users = append(report.Users, summary)
		}

		for _, g := range deps.Registry.Games() {
			report.Games = append(report.Games, GameSummary{
				ID:        g.ID,
				RomName:   g.RomName,
				Owner:     g.Owner.Name(),
				Status:    gameStatusLabel(g.Status()),
				Occupancy: g.OccupancyLabel(),
			})
		}

		resp.RespondSuccess(w, r, report)
	}
}

func userStatusLabel(status byte) string {
	switch status {
	case relay.StatusPlaying:
		return "playing"
	case relay.StatusIdle:
		return "idle"
	case relay.StatusConnecting:
		return "connecting"
	default:
		return "unknown"
	}
}

func gameStatusLabel(status byte) string {
	switch status {
	case relay.GameWaiting:
		return "waiting"
	case relay.GamePlaying:
		return "playing"
	case relay.GameSynchronizing:
		return "synchronizing"
	default:
		return "unknown"
	}
}
