package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"krelay/internal/pkg/logx"
)

// User lifecycle statuses.
const (
	StatusPlaying    byte = 0
	StatusIdle       byte = 1
	StatusConnecting byte = 2
)

// User is one connected session. The registry owns membership and id; the
// session's own mutex guards its mutable fields, which both the session worker
// and the maintenance sweep touch.
type User struct {
	ID     uint16
	Addr   string
	ConnID uuid.UUID

	mu             sync.Mutex
	name           string
	clientType     string
	connectionType byte
	ping           uint32
	status         byte
	accessLevel    int
	p2p            bool
	game           *Game
	loggedIn       bool
	stopped        bool
	stealth        bool
	ignored        map[string]struct{}

	connectTime   time.Time
	lastActivity  time.Time
	lastKeepAlive time.Time

	queue chan Event
}

func newUser(id uint16, addr string, queueSize int) *User {
	now := time.Now()
	return &User{
		ID:            id,
		Addr:          addr,
		ConnID:        uuid.New(),
		status:        StatusConnecting,
		connectTime:   now,
		lastActivity:  now,
		lastKeepAlive: now,
		queue:         make(chan Event, queueSize),
	}
}

// Events returns the session's outbound event queue, drained by the transport.
func (u *User) Events() <-chan Event {
	return u.queue
}

// SetStealth toggles privacy mode: a stealth user joins games without being
// announced and is left out of roster snapshots.
func (u *User) SetStealth(on bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stealth = on
}

// Stealth reports whether the session is in privacy mode.
func (u *User) Stealth() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stealth
}

// IgnoreAddress mutes moderation broadcasts from the given source address.
func (u *User) IgnoreAddress(addr string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ignored == nil {
		u.ignored = make(map[string]struct{})
	}
	u.ignored[addr] = struct{}{}
}

// UnignoreAddress lifts a mute set by IgnoreAddress.
func (u *User) UnignoreAddress(addr string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.ignored, addr)
}

func (u *User) isIgnoring(addr string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.ignored[addr]
	return ok
}

// AddEvent publishes without blocking. A full queue means the client cannot
// keep up; the event is dropped and the gap logged. Events arriving after the
// session stopped are discarded.
func (u *User) AddEvent(e Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopped {
		return
	}
	select {
	case u.queue <- e:
	default:
		logx.Warn("session queue full, dropping event",
			"userID", u.ID, "event", e.EventName())
	}
}

func (u *User) Name() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.name
}

func (u *User) ClientType() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.clientType
}

func (u *User) ConnectionType() byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.connectionType
}

func (u *User) Ping() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ping
}

func (u *User) Status() byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *User) AccessLevel() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.accessLevel
}

// Game returns the game the user currently occupies, or nil.
func (u *User) Game() *Game {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.game
}

func (u *User) LoggedIn() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loggedIn
}

func (u *User) Stopped() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stopped
}

// Touch refreshes the activity clock; any inbound traffic counts.
func (u *User) Touch() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastActivity = time.Now()
}

// TouchKeepAlive refreshes the liveness clock on an explicit keepalive.
func (u *User) TouchKeepAlive() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastKeepAlive = time.Now()
	u.lastActivity = time.Now()
}

// isP2PClient recognizes the peer-to-peer client family by its version string.
func isP2PClient(clientType string) bool {
	return strings.Contains(strings.ToLower(clientType), "p2p")
}

// isDirectiveClient recognizes clients that understand the server's ":" prefixed
// informational directives and want the detailed roster dump after login.
func isDirectiveClient(clientType string) bool {
	return strings.Contains(strings.ToLower(clientType), "emulinker")
}

func (u *User) setLoginIdentity(name, clientType string, connectionType byte, ping uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.name = name
	u.clientType = clientType
	u.connectionType = connectionType
	u.ping = ping
	u.p2p = isP2PClient(clientType)
}

func (u *User) setStatus(status byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
}

func (u *User) setGame(g *Game) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.game = g
}

func (u *User) stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopped {
		return
	}
	u.stopped = true
	close(u.queue)
}
