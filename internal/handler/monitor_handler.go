/*
Package handler provides the HTTP handler function for the WebSocket event monitor.

This file contains the HandleEventFeed function, which is responsible for rate
limiting, validating the operator token, upgrading the HTTP connection to
WebSocket, and streaming registry events until the subscriber disconnects.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"krelay/internal/app/relay"
	"krelay/internal/pkg/auth/jwt"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/limiter"
	"krelay/internal/pkg/logx"
	"krelay/internal/pkg/resp"
)

// EventRecord is one monitor feed entry. Only the fields relevant to the
// event kind are populated.
type EventRecord struct {
	Event    string `json:"event"`
	Username string `json:"username,omitempty"`
	UserID   uint16 `json:"user_id,omitempty"`
	GameID   uint16 `json:"game_id,omitempty"`
	RomName  string `json:"rom_name,omitempty"`
	Message  string `json:"message,omitempty"`
}

// HandleEventFeed creates an HTTP HandlerFunc to process event monitor connection requests.
// Browser WebSocket clients cannot set an Authorization header, so the operator
// token is accepted as a "token" query parameter.
func HandleEventFeed(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("Monitor connection rejected: Rate limit exceeded.", "ip", ip)
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		token := r.URL.Query().Get("token")
		payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("Monitor connection rejected: Invalid token.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		events, cancel := deps.Registry.Subscribe()

		logx.Info("Monitor feed established", "operator", payload.Operator, "ip", ip)

		// The read pump only watches for the close handshake; monitors never
		// send payloads.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		for e := range events {
			if err := conn.WriteJSON(renderEvent(e)); err != nil {
				cancel()
				break
			}
		}

		conn.Close()
		logx.Info("Monitor feed closed", "operator", payload.Operator, "ip", ip)
	}
}

// renderEvent flattens a registry event into the wire record of the feed.
func renderEvent(e relay.Event) EventRecord {
	record := EventRecord{Event: e.EventName()}
	switch ev := e.(type) {
	case relay.UserJoinedEvent:
		record.Username = ev.User.Name()
		record.UserID = ev.User.ID
	case relay.UserQuitEvent:
		record.Username = ev.User.Name()
		record.UserID = ev.User.ID
		record.Message = ev.Message
	case relay.ChatEvent:
		record.Username = ev.User.Name()
		record.UserID = ev.User.ID
		record.Message = ev.Message
	case relay.InfoMessageEvent:
		record.Message = ev.Message
	case relay.GameCreatedEvent:
		record.Username = ev.Game.Owner.Name()
		record.GameID = ev.Game.ID
		record.RomName = ev.Game.RomName
	case relay.GameClosedEvent:
		record.GameID = ev.GameID
	case relay.GameStatusChangedEvent:
		record.GameID = ev.Game.ID
		record.RomName = ev.Game.RomName
		record.Message = ev.Game.OccupancyLabel()
	}
	return record
}
