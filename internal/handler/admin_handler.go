/*
Package handler provides the HTTP handler functions for the operator API.

This file contains the moderation endpoints: server-wide announcements and
ban/silence management against the database access store.
*/
package handler

import (
	"net/http"
	"strings"
	"time"

	"krelay/internal/app/relay"
	"krelay/internal/pkg/auth/jwt"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/logx"
	"krelay/internal/pkg/req"
	"krelay/internal/pkg/resp"
)

// AnnounceRequest is the payload of POST /api/announce. An empty Target
// addresses the whole server; a username addresses one session.
type AnnounceRequest struct {
	Message   string `json:"message"`
	GamesAlso bool   `json:"games_also"`
	Target    string `json:"target"`
}

// HandleAnnounce creates an HTTP HandlerFunc that posts an announcement into
// the lobby (and optionally into every open game's chat).
func HandleAnnounce(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request AnnounceRequest
		if bindErr := req.BindJSON(r, &request); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		if strings.TrimSpace(request.Message) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams, "message"))
			return
		}

		var target *relay.User
		if request.Target != "" {
			target = findUserByName(deps.Registry, request.Target)
			if target == nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrTargetNotFound, request.Target))
				return
			}
		}

		deps.Registry.Announce(request.Message, request.GamesAlso, target)

		logx.Info("Operator announcement posted",
			"operator", operatorName(r), "target", request.Target, "games_also", request.GamesAlso)
		resp.RespondSuccess(w, r, nil)
	}
}

// BanRequest is the payload of POST /api/bans. Pattern may end in '*' for
// prefix matching; a zero ExpiresInMinutes makes the rule permanent.
type BanRequest struct {
	Pattern          string `json:"pattern"`
	Reason           string `json:"reason"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// HandleAddBan creates an HTTP HandlerFunc that records an address ban.
// The rule reaches live sessions at the next maintenance sweep.
func HandleAddBan(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Bans == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		var request BanRequest
		if bindErr := req.BindJSON(r, &request); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}
		if strings.TrimSpace(request.Pattern) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams, "pattern"))
			return
		}

		err := deps.Bans.AddBan(r.Context(), request.Pattern, request.Reason, expiry(request.ExpiresInMinutes))
		if err != nil {
			logx.Error(err, "Failed to record ban", "pattern", request.Pattern)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("Operator ban recorded",
			"operator", operatorName(r), "pattern", request.Pattern, "reason", request.Reason)
		resp.RespondSuccess(w, r, nil)
	}
}

// SilenceRequest is the payload of POST /api/silences.
type SilenceRequest struct {
	Pattern          string `json:"pattern"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// HandleAddSilence creates an HTTP HandlerFunc that mutes an address pattern.
func HandleAddSilence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Bans == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		var request SilenceRequest
		if bindErr := req.BindJSON(r, &request); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}
		if strings.TrimSpace(request.Pattern) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams, "pattern"))
			return
		}

		err := deps.Bans.AddSilence(r.Context(), request.Pattern, expiry(request.ExpiresInMinutes))
		if err != nil {
			logx.Error(err, "Failed to record silence", "pattern", request.Pattern)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("Operator silence recorded",
			"operator", operatorName(r), "pattern", request.Pattern)
		resp.RespondSuccess(w, r, nil)
	}
}

func expiry(minutes int) *time.Time {
	if minutes <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(minutes) * time.Minute)
	return &t
}

func findUserByName(registry *relay.Server, name string) *relay.User {
	for _, u := range registry.Users() {
		if u.LoggedIn() && strings.EqualFold(u.Name(), name) {
			return u
		}
	}
	return nil
}

func operatorName(r *http.Request) string {
	if payload := jwt.GetPayloadFromContext(r); payload != nil {
		return payload.Operator
	}
	return "anonymous"
}
