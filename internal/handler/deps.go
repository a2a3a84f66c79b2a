package handler

import (
	"context"
	"time"

	"krelay/internal/app/relay"
	"krelay/internal/app/stats"
	"krelay/internal/configs"
)

// BanStore persists operator-issued access rules. It is satisfied by the
// postgres access store; when the server runs on static lists it is nil and
// the ban endpoints respond with an error.
type BanStore interface {
	AddBan(ctx context.Context, pattern, reason string, expiresAt *time.Time) error
	AddSilence(ctx context.Context, pattern string, expiresAt *time.Time) error
}

// AppDeps bundles everything the operator API handlers need.
type AppDeps struct {
	Registry *relay.Server
	Gauges   *stats.Gauges
	Config   *configs.AppConfig
	Bans     BanStore
	Version  string
}
