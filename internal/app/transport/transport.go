/*
Package transport runs the UDP endpoint: the connect pilot handshake, datagram
bundling, and the per-connection workers that bridge the socket to the
dispatcher.

Every client shares one socket. An unknown source address may only open with a
pilot message ("HELLO<version>"); a matching protocol version admits it to the
registry and the reply names the session port. All subsequent datagrams from
that address are message bundles.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"krelay/internal/app/dispatch"
	"krelay/internal/app/relay"
	"krelay/internal/configs"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/logx"
)

// ProtocolVersion is the wire revision this server speaks.
const ProtocolVersion = "0.83"

const (
	helloPrefix   = "HELLO"
	helloResponse = "HELLOD00D"
	fullResponse  = "TOO"
	pingRequest   = "PING"
	pingResponse  = "PONG"
)

// maxDatagram bounds a single read; protocol bundles stay well under this.
const maxDatagram = 4096

// Server owns the UDP socket and the live client table.
type Server struct {
	cfg        *configs.AppConfig
	relay      *relay.Server
	dispatcher *dispatch.Dispatcher

	conn *net.UDPConn

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// NewServer binds the relay socket.
func NewServer(cfg *configs.AppConfig, r *relay.Server, d *dispatch.Dispatcher) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.RelayPort})
	if err != nil {
		return nil, fmt.Errorf("cannot bind relay port %d: %w", cfg.RelayPort, err)
	}
	return &Server{
		cfg:        cfg,
		relay:      r,
		dispatcher: d,
		conn:       conn,
		clients:    make(map[string]*client),
	}, nil
}

// Run reads datagrams until the context ends, then tears down every client.
func (s *Server) Run(ctx context.Context) error {
	logx.Info("relay transport listening", "port", s.cfg.RelayPort)

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logx.Warn("udp read failed", "error", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.handleDatagram(addr, data)
	}
}

func (s *Server) handleDatagram(addr *net.UDPAddr, data []byte) {
	key := addr.String()

	s.mu.Lock()
	c, known := s.clients[key]
	s.mu.Unlock()
	if known {
		c.enqueue(data)
		return
	}
	s.handlePilot(addr, data)
}

// handlePilot answers connect-time pilot messages from unknown addresses.
func (s *Server) handlePilot(addr *net.UDPAddr, data []byte) {
	pilot := strings.TrimRight(string(data), "\x00")
	switch {
	case pilot == pingRequest:
		s.write(addr, []byte(pingResponse))
	case strings.HasPrefix(pilot, helloPrefix):
		version := pilot[len(helloPrefix):]
		if version != ProtocolVersion {
			logx.Warn("pilot with unsupported protocol",
				"addr", addr.String(), "version", version)
			return
		}
		s.admit(addr)
	default:
		logx.Debug("ignoring datagram from unknown address", "addr", addr.String())
	}
}

// admit runs registry admission and, on success, installs a client and names
// the session port in the pilot reply.
func (s *Server) admit(addr *net.UDPAddr) {
	u, err := s.relay.NewConnection(addr.IP.String())
	if err != nil {
		if errs.IsCode(err, errs.ErrServerFull) {
			s.write(addr, []byte(fullResponse))
		}
		logx.Info("connection refused", "addr", addr.String(), "error", err)
		return
	}

	c := newClient(s, addr, u)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.relay.Quit(u, "server shutting down")
		return
	}
	s.clients[addr.String()] = c
	s.mu.Unlock()

	c.start()
	s.write(addr, []byte(fmt.Sprintf("%s%d", helloResponse, s.cfg.RelayPort)))
}

// removeClient drops a client from the table; idempotent.
func (s *Server) removeClient(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, key)
}

func (s *Server) write(addr *net.UDPAddr, data []byte) {
	if _, err := s.conn.WriteToUDP(data, addr); err != nil {
		logx.Warn("udp write failed", "addr", addr.String(), "error", err)
	}
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close("server shutting down")
	}
	s.conn.Close()
	logx.Info("relay transport stopped")
}
