/*
Package handler provides the HTTP handlers and routing setup for the operator API.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and
the WebSocket event monitor).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"krelay/internal/pkg/auth/jwt"
	"krelay/internal/pkg/limiter"
	"krelay/internal/pkg/logx"
	"krelay/internal/pkg/resp"
)

const (
	AnnounceRate  = 0.2
	AnnounceBurst = 5
	MonitorRate   = 0.2
	MonitorBurst  = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the operator API.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
// It requires the relay registry for live state and the AppConfig for settings (like allowed origins).
func Router(deps *AppDeps) http.Handler {
	announceLimiter := limiter.NewIPRateLimiter(rate.Limit(AnnounceRate), AnnounceBurst)
	monitorLimiter := limiter.NewIPRateLimiter(rate.Limit(MonitorRate), MonitorBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "krelay",
			"version": deps.Version,
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))
		api.Use(jwt.RequireOperatorMiddleware)

		api.Get("/status", HandleStatus(deps))

		rateLimitedAnnounce := announceLimiter.Middleware(HandleAnnounce(deps))
		api.Post("/announce", http.HandlerFunc(rateLimitedAnnounce.ServeHTTP))

		api.Post("/bans", HandleAddBan(deps))
		api.Post("/silences", HandleAddSilence(deps))
	})

	r.Get("/ws/events", HandleEventFeed(wsUpgrader, monitorLimiter, deps))

	return r
}
