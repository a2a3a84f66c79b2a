package transport

import (
	"net"
	"sync"

	"krelay/internal/app/dispatch"
	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
	"krelay/internal/pkg/logx"
)

// inboundBacklog bounds the undispatched datagrams per client.
const inboundBacklog = 32

// client bridges one remote address to its registry session. Two goroutines
// serve it: the inbound worker dispatches datagrams in arrival order, and the
// drainer renders registry events onto the wire. Outbound messages are
// numbered here and carried in a sliding retransmission window.
type client struct {
	server *Server
	addr   *net.UDPAddr
	user   *relay.User
	sess   *dispatch.Session

	inbound chan []byte
	done    chan struct{}

	outMu   sync.Mutex
	window  []protocol.Outbound
	nextOut uint16

	seenAny  bool
	lastSeen uint16

	closeOnce sync.Once
}

func newClient(s *Server, addr *net.UDPAddr, u *relay.User) *client {
	c := &client{
		server:  s,
		addr:    addr,
		user:    u,
		inbound: make(chan []byte, inboundBacklog),
		done:    make(chan struct{}),
	}
	c.sess = dispatch.NewSession(addr.IP.String(), s.cfg.GameDataCacheSize, c.send, c.close)
	c.sess.SetUser(u)
	return c
}

func (c *client) start() {
	go c.inboundWorker()
	go c.drainer()
}

// enqueue hands a datagram to the inbound worker without blocking the read
// loop. A full backlog drops the datagram; the window retransmit covers it.
func (c *client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.inbound <- data:
	default:
		logx.Warn("inbound backlog full, dropping datagram",
			"addr", c.addr.String(), "userID", c.user.ID)
	}
}

// inboundWorker parses bundles and dispatches fresh messages strictly in
// order. Bundles repeat recent messages, so anything at or behind the last
// seen number is skipped.
func (c *client) inboundWorker() {
	for {
		var data []byte
		select {
		case <-c.done:
			return
		case data = <-c.inbound:
		}

		frames, err := protocol.ParseBundle(data)
		if err != nil {
			logx.Warn("dropping malformed bundle",
				"addr", c.addr.String(), "error", err)
			continue
		}

		// Bundles carry newest first; replay them oldest first.
		for i := len(frames) - 1; i >= 0; i-- {
			f := frames[i]
			if c.seenAny && !protocol.NewerThan(f.Number, c.lastSeen) {
				continue
			}
			c.seenAny = true
			c.lastSeen = f.Number
			if f.Err != nil {
				logx.Warn("dropping unparseable message",
					"addr", c.addr.String(), "number", f.Number, "error", f.Err)
				continue
			}
			if err := c.server.dispatcher.Dispatch(c.sess, f.Msg); err != nil {
				logx.Error(err, "fatal dispatch error, closing connection",
					"addr", c.addr.String(), "userID", c.user.ID)
				c.close(err.Error())
				return
			}
		}
	}
}

// drainer renders registry events until the session's queue closes, then
// finishes the teardown.
func (c *client) drainer() {
	for e := range c.user.Events() {
		c.server.dispatcher.HandleEvent(c.sess, e)
	}
	c.close("session stopped")
}

// send numbers a message, slides it into the retransmission window, and ships
// the window as one datagram. Called from both client goroutines.
func (c *client) send(m protocol.Message) {
	c.outMu.Lock()
	number := c.nextOut
	c.nextOut++
	c.window = append([]protocol.Outbound{{Number: number, Msg: m}}, c.window...)
	if len(c.window) > protocol.MaxBundleSize {
		c.window = c.window[:protocol.MaxBundleSize]
	}
	datagram, err := protocol.FormatBundle(c.window)
	c.outMu.Unlock()

	if err != nil {
		logx.Error(err, "cannot format outbound bundle", "addr", c.addr.String())
		return
	}
	c.server.write(c.addr, datagram)
}

// close tears the client down once: deregisters it, stops the inbound worker,
// and removes the session from the registry.
func (c *client) close(reason string) {
	c.closeOnce.Do(func() {
		c.server.removeClient(c.addr.String())
		close(c.done)
		if !c.user.Stopped() {
			c.server.relay.Quit(c.user, reason)
		}
	})
}
