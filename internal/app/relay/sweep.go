package relay

import (
	"context"
	"fmt"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/pkg/logx"
)

// sweepLoop runs periodic maintenance: refreshing access rules, flagging games
// slow to start, and pruning dead or unwelcome sessions. The interval scales
// with the ping ceiling so the sweep stays proportionate to timeout granularity.
func (s *Server) sweepLoop() {
	interval := time.Duration(s.cfg.MaxPing) * 3 * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.sweepDone:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	defer func() {
		if r := recover(); r != nil {
			logx.Error(fmt.Errorf("%v", r), "maintenance sweep panicked")
		}
	}()

	users := s.Users()
	if len(users) == 0 {
		return
	}

	if r, ok := s.ctrl.(refresher); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.Refresh(ctx); err != nil {
			logx.Warn("access refresh failed", "error", err)
		}
		cancel()
	}

	for _, g := range s.gameSnapshot() {
		g.markStartTimeout(gameStartGrace)
	}

	now := time.Now()
	for _, u := range users {
		s.sweepUser(u, now)
	}
	s.updateGauges()
}

// sweepUser applies at most one corrective action per pass, in priority order.
// The timers are read under the per-user lock; the action itself runs under
// the operation lock so it serializes with a concurrent client-initiated quit
// (quit is additionally idempotent, so a session that left between the check
// and the act is a no-op).
func (s *Server) sweepUser(u *User, now time.Time) {
	u.mu.Lock()
	loggedIn := u.loggedIn
	level := s.ctrl.GetAccess(u.Addr)
	u.accessLevel = level
	connectAge := now.Sub(u.connectTime)
	keepAliveAge := now.Sub(u.lastKeepAlive)
	idleAge := now.Sub(u.lastActivity)
	clientType := u.clientType
	u.mu.Unlock()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	switch {
	case !loggedIn:
		if connectAge > connectGrace {
			logx.Info("dropping stalled handshake", "userID", u.ID, "addr", u.Addr)
			s.dropConnection(u)
		}
	case keepAliveAge > s.cfg.KeepAliveTimeout:
		logx.Info("keepalive timeout", "userID", u.ID, "name", u.Name())
		s.forceQuit(u, "Dropped: lost connection (keepalive timeout).")
	case s.cfg.IdleTimeout > 0 && level <= access.Normal && idleAge > s.cfg.IdleTimeout:
		logx.Info("idle timeout", "userID", u.ID, "name", u.Name())
		s.forceQuit(u, "Dropped: idle too long.")
	case level == access.Banned:
		logx.Info("banning live session", "userID", u.ID, "addr", u.Addr)
		s.forceQuit(u, "Dropped: you have been banned from this server.")
	case level <= access.Normal && !s.ctrl.IsEmulatorAllowed(clientType):
		logx.Info("emulator restricted", "userID", u.ID, "clientType", clientType)
		s.forceQuit(u, "Dropped: your emulator is not allowed on this server.")
	}
}
