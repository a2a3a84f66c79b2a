package relay

import (
	"strings"
	"testing"
	"time"

	"krelay/internal/app/access"
)

// rewind ages a session's clocks so the sweep sees it as stale.
func rewind(u *User, connect, keepAlive, idle time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	now := time.Now()
	u.connectTime = now.Add(-connect)
	u.lastKeepAlive = now.Add(-keepAlive)
	u.lastActivity = now.Add(-idle)
}

// lastQuitMessage drains a session's own queue and returns the message of the
// final quit event seen.
func lastQuitMessage(u *User) string {
	var msg string
	for {
		select {
		case e, ok := <-u.Events():
			if !ok {
				return msg
			}
			if q, isQuit := e.(UserQuitEvent); isQuit {
				msg = q.Message
			}
		default:
			return msg
		}
	}
}

func TestSweepDropsStalledHandshake(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u, err := s.NewConnection("10.0.0.1")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	rewind(u, connectGrace+time.Second, 0, 0)

	s.sweepUser(u, time.Now())

	if !u.Stopped() {
		t.Fatal("stalled handshake still running after sweep")
	}
	if len(s.Users()) != 0 {
		t.Fatalf("registry holds %d users, want 0", len(s.Users()))
	}
}

func TestSweepKeepsFreshHandshake(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u, err := s.NewConnection("10.0.0.1")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}

	s.sweepUser(u, time.Now())

	if u.Stopped() || len(s.Users()) != 1 {
		t.Fatal("sweep dropped a handshake still within its grace window")
	}
}

func TestSweepForceQuitsOnKeepAliveTimeout(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u := login(t, s, "10.0.0.1", "mario")
	rewind(u, 0, 2*s.cfg.KeepAliveTimeout, 0)

	s.sweepUser(u, time.Now())

	if !u.Stopped() || len(s.Users()) != 0 {
		t.Fatal("keepalive-expired session survived the sweep")
	}
}

func TestSweepIdleTimeoutSparesElevatedAccess(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.IdleTimeout = 10 * time.Second
	ctrl := newFakeAccess()
	ctrl.levels["10.0.0.2"] = access.Admin
	s := NewServer(cfg, ctrl, nil, nil, nil, "test server")

	norm := login(t, s, "10.0.0.1", "mario")
	admin := login(t, s, "10.0.0.2", "peach")
	rewind(norm, 0, 0, 20*time.Second)
	rewind(admin, 0, 0, 20*time.Second)

	now := time.Now()
	s.sweepUser(norm, now)
	s.sweepUser(admin, now)

	if !norm.Stopped() {
		t.Fatal("idle normal-access session survived the sweep")
	}
	if admin.Stopped() {
		t.Fatal("sweep idled out an admin session")
	}
	if len(s.Users()) != 1 {
		t.Fatalf("registry holds %d users, want 1", len(s.Users()))
	}
}

func TestSweepRemovesBannedSession(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	s := newTestServer(t, ctrl)
	u := login(t, s, "10.0.0.1", "mario")

	ctrl.levels["10.0.0.1"] = access.Banned
	s.sweepUser(u, time.Now())

	if !u.Stopped() || len(s.Users()) != 0 {
		t.Fatal("banned session survived the sweep")
	}
}

func TestSweepRemovesRestrictedEmulator(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	ctrl.levels["10.0.0.2"] = access.Admin
	s := newTestServer(t, ctrl)
	norm := login(t, s, "10.0.0.1", "mario")
	admin := login(t, s, "10.0.0.2", "peach")

	ctrl.badEmulators["TestClient 1.0"] = true
	now := time.Now()
	s.sweepUser(norm, now)
	s.sweepUser(admin, now)

	if !norm.Stopped() {
		t.Fatal("restricted-emulator session survived the sweep")
	}
	if admin.Stopped() {
		t.Fatal("emulator restriction applied to an elevated session")
	}
}

func TestSweepAppliesOneActionInPriorityOrder(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	s := newTestServer(t, ctrl)
	u := login(t, s, "10.0.0.1", "mario")

	// Expired keepalive and a fresh ban at once: the keepalive action wins
	// and nothing else runs on the same pass.
	rewind(u, 0, 2*s.cfg.KeepAliveTimeout, 0)
	ctrl.levels["10.0.0.1"] = access.Banned

	s.sweepUser(u, time.Now())

	msg := lastQuitMessage(u)
	if !strings.Contains(msg, "keepalive") {
		t.Fatalf("quit message = %q, want the keepalive reason", msg)
	}
	if strings.Contains(msg, "banned") {
		t.Fatalf("quit message = %q, ban action ran on the same pass", msg)
	}
	if len(s.Users()) != 0 {
		t.Fatalf("registry holds %d users, want 0", len(s.Users()))
	}
}
