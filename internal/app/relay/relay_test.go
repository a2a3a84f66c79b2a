package relay

import (
	"strings"
	"testing"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/configs"
	"krelay/internal/pkg/errs"
)

// fakeAccess is a configurable admission oracle for registry tests.
type fakeAccess struct {
	levels       map[string]int
	silenced     map[string]bool
	badEmulators map[string]bool
	badGames     map[string]bool
	announcement string
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{
		levels:       make(map[string]int),
		silenced:     make(map[string]bool),
		badEmulators: make(map[string]bool),
		badGames:     make(map[string]bool),
	}
}

func (f *fakeAccess) GetAccess(addr string) int {
	if level, ok := f.levels[addr]; ok {
		return level
	}
	return access.Normal
}

func (f *fakeAccess) IsEmulatorAllowed(emulator string) bool { return !f.badEmulators[emulator] }
func (f *fakeAccess) IsGameAllowed(game string) bool         { return !f.badGames[game] }
func (f *fakeAccess) IsSilenced(addr string) bool            { return f.silenced[addr] }
func (f *fakeAccess) GetAnnouncement(addr string) string     { return f.announcement }

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		MaxUsers:             10,
		MaxGames:             5,
		MaxPing:              300,
		ConnectionTypes:      []int{1, 2, 3, 4, 5, 6},
		ChatFloodTime:        0,
		CreateGameFloodTime:  0,
		MaxUserNameLength:    30,
		MaxClientNameLength:  127,
		MaxGameNameLength:    127,
		MaxChatLength:        150,
		MaxQuitMessageLength: 100,
		KeepAliveTimeout:     100 * time.Second,
		EventQueueSize:       64,
	}
}

func newTestServer(t *testing.T, ctrl access.Controller) *Server {
	t.Helper()
	if ctrl == nil {
		ctrl = newFakeAccess()
	}
	return NewServer(testConfig(), ctrl, nil, nil, nil, "test server")
}

func login(t *testing.T, s *Server, addr, name string) *User {
	t.Helper()
	u, err := s.NewConnection(addr)
	if err != nil {
		t.Fatalf("NewConnection(%q) failed: %v", addr, err)
	}
	if err := s.Login(u, name, "TestClient 1.0", 1, 50); err != nil {
		t.Fatalf("Login(%q) failed: %v", name, err)
	}
	return u
}

// drain empties a user's queue, returning the event names seen.
func drain(u *User) []string {
	var names []string
	for {
		select {
		case e, ok := <-u.Events():
			if !ok {
				return names
			}
			names = append(names, e.EventName())
		default:
			return names
		}
	}
}

func TestIDPoolWrapsAndSkipsLiveIDs(t *testing.T) {
	t.Parallel()

	p := newIDPool()
	live := map[uint16]bool{2: true}
	inUse := func(id uint16) bool { return live[id] }

	if id, ok := p.acquire(inUse); !ok || id != 1 {
		t.Fatalf("first acquire = %d, %v; want 1", id, ok)
	}
	if id, ok := p.acquire(inUse); !ok || id != 3 {
		t.Fatalf("acquire skipping live id = %d, %v; want 3", id, ok)
	}

	// Walk to the end of the space and confirm the wrap lands back on 1,
	// still skipping the live id.
	p.next = 0xFFFE
	if id, ok := p.acquire(inUse); !ok || id != 0xFFFE {
		t.Fatalf("acquire at end of space = %d, %v; want 0xFFFE", id, ok)
	}
	if id, ok := p.acquire(inUse); !ok || id != 1 {
		t.Fatalf("acquire after wrap = %d, %v; want 1 (0xFFFF is reserved)", id, ok)
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u := login(t, s, "10.0.0.1", "mario")

	if !u.LoggedIn() || u.Status() != StatusIdle {
		t.Fatalf("post-login state: loggedIn=%v status=%d", u.LoggedIn(), u.Status())
	}
	names := drain(u)
	if len(names) == 0 || names[0] != "info-message" {
		t.Fatalf("welcome sequence = %v, want the server notice first", names)
	}
	joined := false
	for _, n := range names {
		if n == "user-joined" {
			joined = true
		}
	}
	if !joined {
		t.Fatalf("welcome sequence = %v, missing the join broadcast", names)
	}
}

func TestLoginDeniesBanned(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	ctrl.levels["10.0.0.66"] = access.Banned
	s := newTestServer(t, ctrl)

	// A banned address can still open a socket; the denial comes at login.
	u, err := s.NewConnection("10.0.0.66")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	err = s.Login(u, "villain", "TestClient 1.0", 1, 50)
	if !errs.IsCode(err, errs.ErrLoginAccessDenied) {
		t.Fatalf("got %v, want access-denied", err)
	}
}

func TestLoginDeniesDuplicateName(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	login(t, s, "10.0.0.1", "mario")

	u2, err := s.NewConnection("10.0.0.2")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	err = s.Login(u2, "MARIO", "TestClient 1.0", 1, 50)
	if !errs.IsCode(err, errs.ErrLoginDuplicateName) {
		t.Fatalf("got %v, want duplicate-name denial (case-insensitive)", err)
	}
}

func TestLoginReconnectForceQuitsStaleSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	stale := login(t, s, "10.0.0.1", "mario")
	fresh := login(t, s, "10.0.0.1", "mario")

	if !stale.Stopped() {
		t.Fatal("stale session survived a same-name same-address reconnect")
	}
	if !fresh.LoggedIn() {
		t.Fatal("reconnect login did not complete")
	}
}

func TestLoginDeniesSecondConnectionFromAddress(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	login(t, s, "10.0.0.1", "mario")

	u2, err := s.NewConnection("10.0.0.1")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	err = s.Login(u2, "luigi", "TestClient 1.0", 1, 50)
	if !errs.IsCode(err, errs.ErrLoginAddressInUse) {
		t.Fatalf("got %v, want address-in-use denial", err)
	}
}

func TestLoginRejectsIllegalNames(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	cases := []string{"Server", "server", "a|b", "www.spam.example", "back\\slash", "ctrl\x01char"}
	for _, name := range cases {
		u, err := s.NewConnection("10.0.0.9")
		if err != nil {
			t.Fatalf("NewConnection failed: %v", err)
		}
		err = s.Login(u, name, "TestClient 1.0", 1, 50)
		if !errs.IsCode(err, errs.ErrLoginNameIllegalChars) {
			t.Fatalf("Login(%q): got %v, want illegal-chars denial", name, err)
		}
		s.dropConnection(u)
	}
}

func TestLoginPingAndConnectionTypeGates(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	u, _ := s.NewConnection("10.0.0.3")
	if err := s.Login(u, "slow", "TestClient 1.0", 1, 9999); !errs.IsCode(err, errs.ErrLoginPingTooHigh) {
		t.Fatalf("got %v, want ping-too-high denial", err)
	}
	s.dropConnection(u)

	u, _ = s.NewConnection("10.0.0.3")
	if err := s.Login(u, "odd", "TestClient 1.0", 9, 50); !errs.IsCode(err, errs.ErrLoginConnectionTypeDenied) {
		t.Fatalf("got %v, want connection-type denial", err)
	}
}

func TestServerFullAdmitsElevatedAccess(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	ctrl.levels["10.0.0.200"] = access.Admin
	cfg := testConfig()
	cfg.MaxUsers = 1
	s := NewServer(cfg, ctrl, nil, nil, nil, "test server")

	if _, err := s.NewConnection("10.0.0.1"); err != nil {
		t.Fatalf("first connection failed: %v", err)
	}
	if _, err := s.NewConnection("10.0.0.2"); !errs.IsCode(err, errs.ErrServerFull) {
		t.Fatalf("got %v, want server-full denial", err)
	}
	if _, err := s.NewConnection("10.0.0.200"); err != nil {
		t.Fatalf("admin connection denied on full server: %v", err)
	}
}

func TestChatSilencedAndSuppression(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	ctrl.silenced["10.0.0.5"] = true
	s := newTestServer(t, ctrl)

	muted := login(t, s, "10.0.0.5", "muted")
	if err := s.Chat(muted, "hello?"); !errs.IsCode(err, errs.ErrChatSilenced) {
		t.Fatalf("got %v, want silenced denial", err)
	}

	speaker := login(t, s, "10.0.0.6", "speaker")
	p2p := login(t, s, "10.0.0.7", "peer")
	p2p.mu.Lock()
	p2p.p2p = true
	p2p.status = StatusPlaying
	p2p.mu.Unlock()
	drain(p2p)

	if err := s.Chat(speaker, "lobby line"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	for _, name := range drain(p2p) {
		if name == "chat" {
			t.Fatal("in-game p2p client received suppressed lobby chat")
		}
	}

	// Game data is never suppressed.
	p2p.AddEvent(GameDataEvent{Data: []byte{0x01}})
	found := false
	for _, name := range drain(p2p) {
		if name == "game-data" {
			found = true
		}
	}
	if !found {
		t.Fatal("game data did not reach the p2p client")
	}
}

func TestCreateJoinQuitGameLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	owner := login(t, s, "10.0.0.1", "owner")
	joiner := login(t, s, "10.0.0.2", "joiner")

	g, err := s.CreateGame(owner, "Super Game (U)")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if _, err := s.CreateGame(owner, "Another Game"); !errs.IsCode(err, errs.ErrCreateGameAlreadyInGame) {
		t.Fatalf("got %v, want already-in-game denial", err)
	}

	if _, err := s.JoinGame(joiner, g.ID); err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	if _, err := s.JoinGame(joiner, g.ID); !errs.IsCode(err, errs.ErrJoinGameAlreadyInGame) {
		t.Fatalf("got %v, want already-in-game denial", err)
	}
	if g.NumPlayers() != 2 {
		t.Fatalf("NumPlayers = %d, want 2", g.NumPlayers())
	}

	// A non-owner leaving keeps the game open; the owner leaving closes it.
	if err := s.QuitGame(joiner); err != nil {
		t.Fatalf("QuitGame(joiner) failed: %v", err)
	}
	if len(s.Games()) != 1 {
		t.Fatal("game closed when a non-owner left")
	}
	if err := s.QuitGame(owner); err != nil {
		t.Fatalf("QuitGame(owner) failed: %v", err)
	}
	if len(s.Games()) != 0 {
		t.Fatal("game survived its owner leaving")
	}
	if owner.Game() != nil {
		t.Fatal("owner still attached to a closed game")
	}
}

func TestGameDataFrameSync(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	p1 := login(t, s, "10.0.0.1", "p1")
	p2 := login(t, s, "10.0.0.2", "p2")

	g, err := s.CreateGame(p1, "Super Game (U)")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if _, err := s.JoinGame(p2, g.ID); err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	drain(p1)
	drain(p2)

	if err := s.AddGameData(p1, []byte{0xA1}); err != nil {
		t.Fatalf("AddGameData failed: %v", err)
	}
	if g.Status() != GamePlaying {
		t.Fatal("first input chunk did not start the game")
	}
	for _, name := range drain(p2) {
		if name == "game-data" {
			t.Fatal("frame emitted before every player contributed")
		}
	}

	if err := s.AddGameData(p2, []byte{0xB2}); err != nil {
		t.Fatalf("AddGameData failed: %v", err)
	}
	var frame []byte
	for {
		e, ok := <-p2.Events()
		if !ok {
			break
		}
		if d, isData := e.(GameDataEvent); isData {
			frame = d.Data
			break
		}
	}
	if string(frame) != string([]byte{0xA1, 0xB2}) {
		t.Fatalf("frame = %v, want inputs concatenated in join order", frame)
	}
}

func TestJoinGameDenials(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u := login(t, s, "10.0.0.1", "mario")

	if _, err := s.JoinGame(u, 42); !errs.IsCode(err, errs.ErrJoinGameNotFound) {
		t.Fatalf("got %v, want not-found denial", err)
	}

	owner := login(t, s, "10.0.0.2", "owner")
	g, err := s.CreateGame(owner, "Super Game (U)")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if err := s.AddGameData(owner, []byte{0x01}); err != nil {
		t.Fatalf("AddGameData failed: %v", err)
	}
	if _, err := s.JoinGame(u, g.ID); !errs.IsCode(err, errs.ErrJoinGameInProgress) {
		t.Fatalf("got %v, want in-progress denial", err)
	}
}

func TestQuitSanitizesMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u := login(t, s, "10.0.0.1", "mario")
	watcher := login(t, s, "10.0.0.2", "watcher")
	drain(watcher)

	if err := s.Quit(u, "bye\x01\x02 all"); err != nil {
		t.Fatalf("Quit failed: %v", err)
	}
	var got string
	for {
		e, ok := <-watcher.Events()
		if !ok {
			break
		}
		if q, isQuit := e.(UserQuitEvent); isQuit {
			got = q.Message
			break
		}
	}
	if got != "bye all" {
		t.Fatalf("quit message = %q, want control characters stripped", got)
	}
	if !u.Stopped() {
		t.Fatal("session still running after quit")
	}
	if len(s.Users()) != 1 {
		t.Fatalf("registry holds %d users, want 1", len(s.Users()))
	}
}

func TestQuitSubstitutesStandardMessage(t *testing.T) {
	t.Parallel()

	if got := sanitizeQuitMessage("\x01\x02  ", 100); got != standardQuitMessage {
		t.Fatalf("empty quit message = %q, want %q", got, standardQuitMessage)
	}
	if got := sanitizeQuitMessage(strings.Repeat("x", 101), 100); got != standardQuitMessage {
		t.Fatalf("over-length quit message = %q, want %q", got, standardQuitMessage)
	}

	ctrl := newFakeAccess()
	ctrl.silenced["10.0.0.1"] = true
	s := newTestServer(t, ctrl)
	u := login(t, s, "10.0.0.1", "mario")
	watcher := login(t, s, "10.0.0.2", "watcher")
	drain(watcher)

	if err := s.Quit(u, "parting shot"); err != nil {
		t.Fatalf("Quit failed: %v", err)
	}
	for {
		e, ok := <-watcher.Events()
		if !ok {
			t.Fatal("watcher queue closed without a quit event")
		}
		if q, isQuit := e.(UserQuitEvent); isQuit {
			if q.Message != standardQuitMessage {
				t.Fatalf("silenced quit message = %q, want %q", q.Message, standardQuitMessage)
			}
			break
		}
	}
}

func TestConcurrentLoginsKeepNamesUnique(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u1, err := s.NewConnection("10.0.0.1")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	u2, err := s.NewConnection("10.0.0.2")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}

	start := make(chan struct{})
	results := make(chan error, 2)
	for _, u := range []*User{u1, u2} {
		u := u
		go func() {
			<-start
			results <- s.Login(u, "dude", "TestClient 1.0", 1, 50)
		}()
	}
	close(start)

	var succeeded, denied int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errs.IsCode(err, errs.ErrLoginDuplicateName):
			denied++
		default:
			t.Fatalf("unexpected login error: %v", err)
		}
	}
	if succeeded != 1 || denied != 1 {
		t.Fatalf("succeeded=%d denied=%d, want exactly one of each", succeeded, denied)
	}

	named := 0
	for _, u := range s.Users() {
		if strings.EqualFold(u.Name(), "dude") {
			named++
		}
	}
	if named != 1 {
		t.Fatalf("registry holds %d sessions named dude, want 1", named)
	}
}

func TestForceQuitAfterQuitBroadcastsOnce(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	u := login(t, s, "10.0.0.1", "mario")
	watcher := login(t, s, "10.0.0.2", "watcher")
	drain(watcher)

	if err := s.Quit(u, "done for tonight"); err != nil {
		t.Fatalf("Quit failed: %v", err)
	}
	s.forceQuit(u, "Dropped: lost connection (keepalive timeout).")

	quits := 0
	for _, name := range drain(watcher) {
		if name == "user-quit" {
			quits++
		}
	}
	if quits != 1 {
		t.Fatalf("watcher saw %d quit broadcasts, want 1", quits)
	}
}

func TestChatFlood(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ChatFloodTime = 60
	s := NewServer(cfg, newFakeAccess(), nil, nil, nil, "test server")
	u := login(t, s, "10.0.0.1", "mario")

	if err := s.Chat(u, "first"); err != nil {
		t.Fatalf("first chat failed: %v", err)
	}
	if err := s.Chat(u, "second"); !errs.IsCode(err, errs.ErrChatFlood) {
		t.Fatalf("got %v, want flood denial", err)
	}
}

func TestAnnounceFromHonorsIgnoreList(t *testing.T) {
	t.Parallel()

	ctrl := newFakeAccess()
	ctrl.levels["10.0.0.3"] = access.Admin
	s := newTestServer(t, ctrl)
	announcer := login(t, s, "10.0.0.1", "mario")
	muter := login(t, s, "10.0.0.2", "luigi")
	admin := login(t, s, "10.0.0.3", "peach")

	muter.IgnoreAddress(announcer.Addr)
	drain(muter)
	drain(admin)

	s.AnnounceFrom(announcer, "clean up your language", false)

	for _, name := range drain(muter) {
		if name == "info-message" {
			t.Fatal("ignoring user still received the broadcast")
		}
	}
	var adminGot bool
	for _, name := range drain(admin) {
		if name == "info-message" {
			adminGot = true
		}
	}
	if !adminGot {
		t.Fatal("admin did not receive the broadcast despite the ignore list")
	}

	muter.UnignoreAddress(announcer.Addr)
	s.AnnounceFrom(announcer, "second notice", false)
	var got bool
	for _, name := range drain(muter) {
		if name == "info-message" {
			got = true
		}
	}
	if !got {
		t.Fatal("unignore did not restore broadcasts")
	}
}

func TestStealthJoinIsNotAnnounced(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	owner := login(t, s, "10.0.0.1", "mario")
	ghost := login(t, s, "10.0.0.2", "luigi")
	ghost.SetStealth(true)

	g, err := s.CreateGame(owner, "Super Game (U)")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	drain(owner)

	if _, err := s.JoinGame(ghost, g.ID); err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	for _, name := range drain(owner) {
		if name == "player-joined" {
			t.Fatal("stealth join was announced to the game")
		}
	}
	if g.NumPlayers() != 2 {
		t.Fatalf("game holds %d players, want 2", g.NumPlayers())
	}
}
