package dispatch

import (
	"sync"
	"testing"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
	"krelay/internal/configs"
	"krelay/internal/pkg/errs"
)

type openAccess struct{}

func (openAccess) GetAccess(addr string) int              { return access.Normal }
func (openAccess) IsEmulatorAllowed(emulator string) bool { return true }
func (openAccess) IsGameAllowed(game string) bool         { return true }
func (openAccess) IsSilenced(addr string) bool            { return false }
func (openAccess) GetAnnouncement(addr string) string     { return "" }

type sendLog struct {
	mu     sync.Mutex
	sent   []protocol.Message
	closed bool
}

func (l *sendLog) send(m protocol.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, m)
}

func (l *sendLog) close(string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *sendLog) messages() []protocol.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]protocol.Message, len(l.sent))
	copy(out, l.sent)
	return out
}

func (l *sendLog) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		MaxUsers:             10,
		MaxGames:             5,
		MaxPing:              300,
		ConnectionTypes:      []int{1, 2, 3, 4, 5, 6},
		MaxUserNameLength:    30,
		MaxClientNameLength:  127,
		MaxGameNameLength:    127,
		MaxChatLength:        150,
		MaxQuitMessageLength: 100,
		KeepAliveTimeout:     100 * time.Second,
		GameDataCacheSize:    16,
		EventQueueSize:       64,
	}
}

func relayServer(t *testing.T, cfg *configs.AppConfig) *relay.Server {
	t.Helper()
	return relay.NewServer(cfg, openAccess{}, nil, nil, nil, "test server")
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Session, *sendLog) {
	t.Helper()
	cfg := testConfig()
	server := relayServer(t, cfg)

	log := &sendLog{}
	sess := NewSession("10.0.0.1", cfg.GameDataCacheSize, log.send, log.close)

	u, err := server.NewConnection(sess.Addr())
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	sess.SetUser(u)

	return NewDispatcher(server, cfg), sess, log
}

func handshake(t *testing.T, d *Dispatcher, sess *Session, name string) {
	t.Helper()
	err := d.Dispatch(sess, protocol.UserInformation{
		Username: name, ClientType: "TestClient 1.0", ConnectionType: 1,
	})
	if err != nil {
		t.Fatalf("login dispatch failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := d.Dispatch(sess, protocol.ClientAck{}); err != nil {
			t.Fatalf("ack %d dispatch failed: %v", i, err)
		}
	}
	if !sess.User().LoggedIn() {
		t.Fatal("handshake did not complete login")
	}
}

func TestHandshakeSendsStatusAndAcks(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	handshake(t, d, sess, "mario")

	msgs := log.messages()
	if len(msgs) < 5 {
		t.Fatalf("sent %d messages, want roster plus 4 acks", len(msgs))
	}
	if _, ok := msgs[0].(protocol.ServerStatus); !ok {
		t.Fatalf("first message is %T, want ServerStatus", msgs[0])
	}
	acks := 0
	for _, m := range msgs {
		if _, ok := m.(protocol.ServerAck); ok {
			acks++
		}
	}
	if acks != 4 {
		t.Fatalf("sent %d server acks, want 4", acks)
	}
}

func TestLoginDenialClosesConnection(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	err := d.Dispatch(sess, protocol.UserInformation{
		Username: "a|b", ClientType: "TestClient 1.0", ConnectionType: 1,
	})
	if err != nil {
		t.Fatalf("login dispatch failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := d.Dispatch(sess, protocol.ClientAck{}); err != nil {
			t.Fatalf("ack dispatch failed: %v", err)
		}
	}

	if !log.isClosed() {
		t.Fatal("denied login left the connection open")
	}
	var denial string
	for _, m := range log.messages() {
		if info, ok := m.(protocol.InformationMessage); ok {
			denial = info.Message
		}
	}
	if denial == "" {
		t.Fatal("no denial notice sent before close")
	}
}

func TestDenialAnsweredOnTheWire(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	if err := d.Dispatch(sess, protocol.ChatRequest{Message: "early"}); err != nil {
		t.Fatalf("Dispatch returned fatal error for a denial: %v", err)
	}

	msgs := log.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1 denial notice", len(msgs))
	}
	info, ok := msgs[0].(protocol.InformationMessage)
	if !ok || info.Source != serverSource {
		t.Fatalf("denial rendered as %#v, want server information message", msgs[0])
	}
	if log.isClosed() {
		t.Fatal("denial closed the connection")
	}
}

func TestNotificationInboundIsFatal(t *testing.T) {
	t.Parallel()

	d, sess, _ := newTestDispatcher(t)
	handshake(t, d, sess, "mario")

	err := d.Dispatch(sess, protocol.ChatNotification{Username: "spoof", Message: "hi"})
	if !errs.IsCode(err, errs.ErrFatalAction) {
		t.Fatalf("got %v, want fatal action error", err)
	}
}

func TestCachedGameDataMissWarnsAndSurvives(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	handshake(t, d, sess, "mario")
	if err := d.Dispatch(sess, protocol.CreateGameRequest{RomName: "Super Game (U)"}); err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	before := len(log.messages())
	if err := d.Dispatch(sess, protocol.CachedGameData{Key: 9}); err != nil {
		t.Fatalf("cache miss returned fatal error: %v", err)
	}
	msgs := log.messages()
	if len(msgs) != before+1 {
		t.Fatalf("cache miss sent %d messages, want exactly one warning", len(msgs)-before)
	}
	warn, ok := msgs[len(msgs)-1].(protocol.GameChatNotification)
	if !ok || warn.Message != cacheMissWarning {
		t.Fatalf("got %#v, want the game chat warning", msgs[len(msgs)-1])
	}
	if log.isClosed() {
		t.Fatal("cache miss closed the session")
	}
}

func TestOutboundGameDataDeduplicates(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	handshake(t, d, sess, "mario")
	if err := d.Dispatch(sess, protocol.CreateGameRequest{RomName: "Super Game (U)"}); err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	frame := []byte{0x01, 0x02, 0x03}
	drainEvents(d, sess)

	if err := d.Dispatch(sess, protocol.GameData{Data: frame}); err != nil {
		t.Fatalf("game data dispatch failed: %v", err)
	}
	drainEvents(d, sess)
	if err := d.Dispatch(sess, protocol.GameData{Data: frame}); err != nil {
		t.Fatalf("second game data dispatch failed: %v", err)
	}
	drainEvents(d, sess)

	var kinds []byte
	for _, m := range log.messages() {
		switch m.(type) {
		case protocol.GameData, protocol.CachedGameData:
			kinds = append(kinds, m.TypeID())
		}
	}
	want := []byte{protocol.TypeGameData, protocol.TypeCachedGameData}
	if len(kinds) != 2 || kinds[0] != want[0] || kinds[1] != want[1] {
		t.Fatalf("outbound data kinds = %v, want raw then cached", kinds)
	}
}

func TestQuitClosesSession(t *testing.T) {
	t.Parallel()

	d, sess, log := newTestDispatcher(t)
	handshake(t, d, sess, "mario")

	if err := d.Dispatch(sess, protocol.QuitRequest{Message: "bye"}); err != nil {
		t.Fatalf("quit dispatch failed: %v", err)
	}
	if !log.isClosed() {
		t.Fatal("quit did not close the connection")
	}
	if !sess.User().Stopped() {
		t.Fatal("quit did not stop the registry session")
	}
}

// drainEvents pumps the session's registry queue through the event handlers,
// standing in for the transport's drainer goroutine.
func drainEvents(d *Dispatcher, sess *Session) {
	u := sess.User()
	for {
		select {
		case e, ok := <-u.Events():
			if !ok {
				return
			}
			d.HandleEvent(sess, e)
		default:
			return
		}
	}
}
