/*
Package dispatch translates between the wire and the session registry.

Inbound messages are routed through an action table: one action per message
kind, each performing exactly one registry transition and any immediate
replies. Registry events flow back out through an event-handler table that
renders them as protocol messages. Tables are built once at startup; actions
and handlers are stateless apart from invocation counters.
*/
package dispatch

import (
	"sync"
	"time"

	"krelay/internal/app/gamecache"
	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
)

// pingRounds is how many ack round trips measure the client's latency before
// login proceeds.
const pingRounds = 4

// Session is the per-connection state the dispatcher works against. The
// inbound worker owns the login handshake scratch space and the inbound
// payload cache; the event drainer owns the outbound cache. The user handle
// is shared between both and guarded.
type Session struct {
	addr    string
	send    func(protocol.Message)
	close   func(reason string)
	inCache *gamecache.Cache

	mu   sync.Mutex
	user *relay.User

	outCache *gamecache.Cache

	// Login handshake scratch, touched only by the inbound worker.
	pendingName     string
	pendingClient   string
	pendingConnType byte
	ackCount        int
	ackSentAt       time.Time
	pingTotal       time.Duration
}

// NewSession binds a connection's transport callbacks to dispatcher state.
// send must be safe for concurrent use; close must be idempotent.
func NewSession(addr string, cacheSize int, send func(protocol.Message), close func(reason string)) *Session {
	return &Session{
		addr:     addr,
		send:     send,
		close:    close,
		inCache:  gamecache.New(cacheSize),
		outCache: gamecache.New(cacheSize),
	}
}

// Addr returns the connection's source address (without port).
func (s *Session) Addr() string {
	return s.addr
}

// User returns the registry session, or nil before admission.
func (s *Session) User() *relay.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser attaches the registry session after admission.
func (s *Session) SetUser(u *relay.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Send hands a message to the transport's outbound bundle.
func (s *Session) Send(m protocol.Message) {
	s.send(m)
}

// Close tears the connection down.
func (s *Session) Close(reason string) {
	s.close(reason)
}

// beginAckRound stamps the send time of a server ack so the reply measures one
// round trip.
func (s *Session) beginAckRound() {
	s.ackSentAt = time.Now()
}

// completeAckRound accumulates one measured round trip. done reports whether
// enough rounds have run; ping is the average in milliseconds, floored at 1.
func (s *Session) completeAckRound() (ping uint32, done bool) {
	s.pingTotal += time.Since(s.ackSentAt)
	s.ackCount++
	if s.ackCount < pingRounds {
		return 0, false
	}
	avg := s.pingTotal.Milliseconds() / pingRounds
	if avg < 1 {
		avg = 1
	}
	return uint32(avg), true
}
