package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/app/social"
	"krelay/internal/app/stats"
	"krelay/internal/app/trivia"
	"krelay/internal/configs"
	"krelay/internal/pkg/errs"
	"krelay/internal/pkg/limiter"
	"krelay/internal/pkg/logx"
)

// reservedName cannot be claimed by clients; server notices are attributed to it.
const reservedName = "Server"

// gameStartGrace is how long a game may sit in WAITING before the sweep flags
// it as slow to start.
const gameStartGrace = 15 * time.Second

// connectGrace is how long an unauthenticated connection may linger before the
// sweep drops it.
const connectGrace = 15 * time.Second

// loginPacing is the delivery pacing hint between scripted post-login sends,
// so slow clients keep up without the login itself blocking.
const loginPacing = 20 * time.Millisecond

// refresher is implemented by access controllers whose rule sets can go stale.
type refresher interface {
	Refresh(ctx context.Context) error
}

// Server is the session registry. Mutating operations (admission, login, quit,
// chat, game lifecycle) serialize on opMu, a single-writer section; mu guards
// the maps themselves so reads and event fan-out can work against snapshots
// without waiting on a full operation.
type Server struct {
	cfg     *configs.AppConfig
	ctrl    access.Controller
	gauges  stats.Collector
	social  social.Reporter
	trivia  trivia.Scorer
	version string

	chatFlood   *limiter.FloodGuard
	createFlood *limiter.FloodGuard

	opMu sync.Mutex

	mu       sync.Mutex
	users    map[uint16]*User
	games    map[uint16]*Game
	userIDs  *idPool
	gameIDs  *idPool
	monitors map[chan Event]struct{}
	started  time.Time
	stopping bool

	sweepDone chan struct{}
}

// NewServer wires the registry to its collaborators. Any collaborator but the
// access controller may be nil.
func NewServer(cfg *configs.AppConfig, ctrl access.Controller, gauges stats.Collector,
	reporter social.Reporter, scorer trivia.Scorer, version string) *Server {
	return &Server{
		cfg:         cfg,
		ctrl:        ctrl,
		gauges:      gauges,
		social:      reporter,
		trivia:      scorer,
		version:     version,
		chatFlood:   limiter.NewFloodGuard(time.Duration(cfg.ChatFloodTime) * time.Second),
		createFlood: limiter.NewFloodGuard(time.Duration(cfg.CreateGameFloodTime) * time.Second),
		users:       make(map[uint16]*User),
		games:       make(map[uint16]*Game),
		userIDs:     newIDPool(),
		gameIDs:     newIDPool(),
		monitors:    make(map[chan Event]struct{}),
		started:     time.Now(),
		sweepDone:   make(chan struct{}),
	}
}

// Start launches the maintenance sweep.
func (s *Server) Start() {
	go s.sweepLoop()
	logx.Info("session registry started",
		"maxUsers", s.cfg.MaxUsers, "maxGames", s.cfg.MaxGames)
}

// Stop force-quits every session and halts the sweep.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	users := s.userSnapshotLocked()
	s.mu.Unlock()

	close(s.sweepDone)
	s.opMu.Lock()
	for _, u := range users {
		s.forceQuit(u, "Server is shutting down.")
	}
	s.opMu.Unlock()

	s.mu.Lock()
	s.users = make(map[uint16]*User)
	s.games = make(map[uint16]*Game)
	for ch := range s.monitors {
		close(ch)
	}
	s.monitors = make(map[chan Event]struct{})
	s.mu.Unlock()
	logx.Info("session registry stopped")
}

// Uptime reports how long the registry has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}

// NewConnection admits a handshaking client and returns its session. Admission
// fails when the server is full, unless the address holds elevated access.
func (s *Server) NewConnection(addr string) (*User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	level := s.ctrl.GetAccess(addr)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return nil, errs.NewError(errs.ErrConnectionRejected, "server is shutting down")
	}
	if len(s.users) >= s.cfg.MaxUsers && level <= access.Normal {
		return nil, errs.NewError(errs.ErrServerFull)
	}

	id, ok := s.userIDs.acquire(func(id uint16) bool {
		_, live := s.users[id]
		return live
	})
	if !ok {
		return nil, errs.NewError(errs.ErrServerFull)
	}

	u := newUser(id, addr, s.cfg.EventQueueSize)
	u.mu.Lock()
	u.accessLevel = level
	u.mu.Unlock()
	s.users[id] = u

	logx.Info("connection admitted", "userID", id, "addr", addr, "connID", u.ConnID)
	return u, nil
}

// Login runs the admission pipeline on an authenticated identity. The whole
// pipeline holds the operation lock so concurrent logins serialize; the checks
// run in a fixed order and the first failure wins. On success the session
// turns IDLE and the scripted welcome sequence is queued with pacing hints.
func (s *Server) Login(u *User, name, clientType string, connectionType byte, ping uint32) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if u.LoggedIn() {
		return errs.NewError(errs.ErrLoginAlreadyLoggedIn)
	}
	if !s.knownSession(u) {
		return errs.NewError(errs.ErrLoginConnectionTimedOut)
	}

	level := s.ctrl.GetAccess(u.Addr)
	if level == access.Banned {
		return errs.NewError(errs.ErrLoginAccessDenied)
	}
	if level <= access.Normal && ping > uint32(s.cfg.MaxPing) {
		return errs.NewError(errs.ErrLoginPingTooHigh, ping)
	}
	if level <= access.Normal && !s.connectionTypeAllowed(connectionType) {
		return errs.NewError(errs.ErrLoginConnectionTypeDenied, connectionType)
	}
	if ping == 0 {
		return errs.NewError(errs.ErrLoginInvalidPing)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewError(errs.ErrLoginNameEmpty)
	}
	if err := s.checkNameLegality(name, level); err != nil {
		return err
	}
	if s.cfg.MaxUserNameLength > 0 && len(name) > s.cfg.MaxUserNameLength {
		return errs.NewError(errs.ErrLoginNameTooLong)
	}
	if level <= access.Normal {
		if s.cfg.MaxClientNameLength > 0 && len(clientType) > s.cfg.MaxClientNameLength {
			return errs.NewError(errs.ErrLoginClientNameTooLong)
		}
		if strings.Contains(clientType, "|") {
			return errs.NewError(errs.ErrLoginClientNameIllegalChars)
		}
	}
	if u.Status() != StatusConnecting {
		return errs.NewError(errs.ErrLoginInvalidStatus, u.Status())
	}
	if !s.sessionAddressMatches(u) {
		logx.Warn("login address mismatch", "userID", u.ID, "addr", u.Addr)
		return errs.NewError(errs.ErrLoginAddressMismatch)
	}
	if level <= access.Normal && !s.ctrl.IsEmulatorAllowed(clientType) {
		return errs.NewError(errs.ErrLoginEmulatorRestricted, clientType)
	}
	if err := s.resolveCollisions(u, name, level); err != nil {
		return err
	}

	u.setLoginIdentity(name, clientType, connectionType, ping)
	u.mu.Lock()
	u.accessLevel = level
	u.loggedIn = true
	u.status = StatusIdle
	u.mu.Unlock()

	logx.Info("user logged in", "userID", u.ID, "name", name,
		"clientType", clientType, "addr", u.Addr, "ping", ping)
	s.runWelcomeSequence(u, level)
	s.updateGauges()
	return nil
}

// checkNameLegality rejects the reserved server name, field separators, and,
// for normal users, URL-ish spam and control characters.
func (s *Server) checkNameLegality(name string, level int) error {
	if strings.EqualFold(name, reservedName) || strings.Contains(name, "|") {
		return errs.NewError(errs.ErrLoginNameIllegalChars)
	}
	if level > access.Normal {
		return nil
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "www.") || strings.Contains(lower, "http://") ||
		strings.Contains(lower, "https://") || strings.Contains(name, "\\") {
		return errs.NewError(errs.ErrLoginNameIllegalChars)
	}
	for _, r := range name {
		if r < 32 {
			return errs.NewError(errs.ErrLoginNameIllegalChars)
		}
	}
	return nil
}

// resolveCollisions scans logged-in sessions for name and address conflicts.
// A matching name from the same address is a reconnect: the stale session is
// force-quit and the login proceeds.
func (s *Server) resolveCollisions(u *User, name string, level int) error {
	for _, other := range s.loggedInUsers() {
		if other == u {
			continue
		}
		sameName := strings.EqualFold(other.Name(), name)
		sameAddr := other.Addr == u.Addr
		switch {
		case sameName && sameAddr:
			logx.Info("reconnect detected, dropping stale session",
				"staleUserID", other.ID, "addr", u.Addr)
			s.forceQuit(other, "Reconnecting from the same address.")
		case sameName:
			return errs.NewError(errs.ErrLoginDuplicateName, name)
		case sameAddr && level <= access.Normal && !s.cfg.AllowMultipleConnections:
			return errs.NewError(errs.ErrLoginAddressInUse, other.Name())
		}
	}
	return nil
}

// runWelcomeSequence queues the scripted post-login sends. Each carries a
// pacing hint the drainer honors, so bundles do not swamp the client before it
// finishes its own setup.
func (s *Server) runWelcomeSequence(u *User, level int) {
	u.AddEvent(InfoMessageEvent{Message: s.version})
	for _, line := range s.cfg.LoginMessages {
		u.AddEvent(paced(InfoMessageEvent{Message: line}))
	}

	if isDirectiveClient(u.ClientType()) {
		u.AddEvent(paced(InfoMessageEvent{Message: fmt.Sprintf(":ACCESS=%d", level)}))
		for _, line := range s.rosterDirectives() {
			u.AddEvent(paced(InfoMessageEvent{Message: line}))
		}
	}
	if level >= access.Admin {
		u.AddEvent(paced(InfoMessageEvent{Message: "Welcome, admin. Moderation commands are enabled."}))
	}

	s.AddEvent(UserJoinedEvent{User: u})

	if msg := s.ctrl.GetAnnouncement(u.Addr); msg != "" {
		u.AddEvent(paced(InfoMessageEvent{Message: msg}))
	}
}

func paced(e Event) PacedEvent {
	return PacedEvent{Event: e, Delay: loginPacing}
}

// rosterDirectives renders the logged-in roster as ":USERINFO=" directive
// lines, chunked so each stays well under datagram size.
func (s *Server) rosterDirectives() []string {
	var lines []string
	var sb strings.Builder
	for _, other := range s.loggedInUsers() {
		entry := fmt.Sprintf("%d,%s,%s,%d,%d;",
			other.ID, other.Addr, other.Name(), other.Ping(), other.Status())
		if sb.Len()+len(entry) > 300 {
			lines = append(lines, ":USERINFO="+sb.String())
			sb.Reset()
		}
		sb.WriteString(entry)
	}
	if sb.Len() > 0 {
		lines = append(lines, ":USERINFO="+sb.String())
	}
	return lines
}

// Chat validates and broadcasts a lobby chat line, feeding open trivia rounds
// along the way.
func (s *Server) Chat(u *User, message string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !u.LoggedIn() {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	if u.AccessLevel() < access.SuperAdmin && s.ctrl.IsSilenced(u.Addr) {
		return errs.NewError(errs.ErrChatSilenced)
	}
	// Blank lines and client directive lines (":...") never reach the lobby.
	if strings.TrimSpace(message) == "" || message[0] < 32 || strings.HasPrefix(message, ":") {
		return nil
	}
	if u.AccessLevel() <= access.Normal {
		if !s.chatFlood.Allow(u.ID) {
			return errs.NewError(errs.ErrChatFlood)
		}
		if hasControlChars(message) {
			return errs.NewError(errs.ErrChatIllegalChars)
		}
		if s.cfg.MaxChatLength > 0 && len(message) > s.cfg.MaxChatLength {
			return errs.NewError(errs.ErrChatTooLong)
		}
	}
	u.Touch()

	if s.trivia != nil && !s.trivia.IsAnswered() && s.trivia.IsCorrect(message) {
		s.trivia.AddScore(u.Name(), u.Addr, message)
		s.Announce(fmt.Sprintf("%s answered correctly and takes the round!", u.Name()), false, nil)
	}

	s.AddEvent(ChatEvent{User: u, Message: message})
	return nil
}

// CreateGame opens a new game owned by the caller.
func (s *Server) CreateGame(u *User, romName string) (*Game, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !u.LoggedIn() {
		return nil, errs.NewError(errs.ErrNotLoggedIn)
	}
	if u.AccessLevel() <= access.Normal && !s.createFlood.Allow(u.ID) {
		return nil, errs.NewError(errs.ErrCreateGameFlood)
	}
	if u.Game() != nil {
		return nil, errs.NewError(errs.ErrCreateGameAlreadyInGame)
	}
	romName = strings.TrimSpace(romName)
	if romName == "" {
		return nil, errs.NewError(errs.ErrCreateGameNameEmpty)
	}
	if hasControlChars(romName) {
		return nil, errs.NewError(errs.ErrCreateGameIllegalChars)
	}
	if s.cfg.MaxGameNameLength > 0 && len(romName) > s.cfg.MaxGameNameLength {
		return nil, errs.NewError(errs.ErrCreateGameNameTooLong)
	}
	if u.AccessLevel() <= access.Normal && !s.ctrl.IsGameAllowed(romName) {
		return nil, errs.NewError(errs.ErrCreateGameRestricted)
	}

	s.mu.Lock()
	if len(s.games) >= s.cfg.MaxGames && u.AccessLevel() <= access.Normal {
		s.mu.Unlock()
		return nil, errs.NewError(errs.ErrCreateGameMaxGames, s.cfg.MaxGames)
	}
	id, ok := s.gameIDs.acquire(func(id uint16) bool {
		_, live := s.games[id]
		return live
	})
	if !ok {
		s.mu.Unlock()
		return nil, errs.NewError(errs.ErrCreateGameMaxGames, s.cfg.MaxGames)
	}
	g := newGame(id, romName, u)
	s.games[id] = g
	s.mu.Unlock()

	g.addPlayer(u)
	u.setGame(g)
	u.Touch()

	logx.Info("game created", "gameID", g.ID, "romName", romName, "owner", u.Name())
	s.AddEvent(GameCreatedEvent{Game: g})
	s.AddEvent(GameStatusChangedEvent{Game: g})
	if s.social != nil {
		s.social.ReportAndStartTimer(g.ID, romName, u.ID, u.Name())
	}
	s.updateGauges()
	return g, nil
}

// JoinGame adds the caller to an open game. Holding the operation lock keeps
// the membership check and the insert atomic against a concurrent close.
func (s *Server) JoinGame(u *User, gameID uint16) (*Game, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !u.LoggedIn() {
		return nil, errs.NewError(errs.ErrNotLoggedIn)
	}
	if u.Game() != nil {
		return nil, errs.NewError(errs.ErrJoinGameAlreadyInGame)
	}

	s.mu.Lock()
	g, ok := s.games[gameID]
	s.mu.Unlock()
	if !ok {
		return nil, errs.NewError(errs.ErrJoinGameNotFound, gameID)
	}
	if g.Status() != GameWaiting {
		return nil, errs.NewError(errs.ErrJoinGameInProgress)
	}
	if !g.addPlayer(u) {
		return nil, errs.NewError(errs.ErrJoinGameFull)
	}
	u.setGame(g)
	u.Touch()

	if !u.Stealth() {
		g.addEvent(PlayerJoinedEvent{Game: g, User: u})
	}
	s.AddEvent(GameStatusChangedEvent{Game: g})
	s.updateGauges()
	return g, nil
}

// QuitGame removes the caller from its game. The game closes when its owner
// leaves or when nobody remains.
func (s *Server) QuitGame(u *User) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.quitGame(u)
}

func (s *Server) quitGame(u *User) error {
	g := u.Game()
	if g == nil {
		return errs.NewError(errs.ErrQuitGameNotInGame)
	}

	g.removePlayer(u)
	u.setGame(nil)
	u.setStatus(StatusIdle)
	u.Touch()
	g.addEvent(PlayerQuitEvent{Game: g, User: u})

	if g.Owner == u || g.NumPlayers() == 0 {
		s.closeGame(g)
	} else {
		s.AddEvent(GameStatusChangedEvent{Game: g})
	}
	s.updateGauges()
	return nil
}

// closeGame tears a game down, evicting any remaining players first.
func (s *Server) closeGame(g *Game) {
	s.mu.Lock()
	if _, live := s.games[g.ID]; !live {
		s.mu.Unlock()
		logx.Warn("close requested for a game no longer registered", "gameID", g.ID)
		return
	}
	delete(s.games, g.ID)
	s.mu.Unlock()

	for _, p := range g.Players() {
		g.removePlayer(p)
		p.setGame(nil)
		p.setStatus(StatusIdle)
		p.AddEvent(PlayerQuitEvent{Game: g, User: p})
	}

	if s.social != nil {
		s.social.CancelActionsForUser(g.Owner.ID)
	}
	logx.Info("game closed", "gameID", g.ID, "romName", g.RomName)
	s.AddEvent(GameClosedEvent{GameID: g.ID})
}

// GameChat relays an in-game chat line to the caller's game.
func (s *Server) GameChat(u *User, message string) error {
	g := u.Game()
	if g == nil {
		return errs.NewError(errs.ErrGameChatNotInGame)
	}
	u.Touch()
	g.addEvent(GameChatEvent{User: u, Message: message})
	return nil
}

// AddGameData feeds one input chunk into the caller's game. A completed frame
// fans out to every player.
func (s *Server) AddGameData(u *User, data []byte) error {
	g := u.Game()
	if g == nil {
		return errs.NewError(errs.ErrGameChatNotInGame)
	}
	u.Touch()

	frame, started := g.addData(u, data)
	if started {
		for _, p := range g.Players() {
			p.setStatus(StatusPlaying)
		}
		logx.Info("game started", "gameID", g.ID, "romName", g.RomName,
			"players", g.NumPlayers())
		s.AddEvent(GameStatusChangedEvent{Game: g})
		s.updateGauges()
	}
	if frame != nil {
		g.addEvent(GameDataEvent{Data: frame})
	}
	return nil
}

// KeepAlive refreshes the caller's liveness clock.
func (s *Server) KeepAlive(u *User) {
	u.TouchKeepAlive()
}

// Quit removes a session at the client's request. The parting message is
// sanitized before it reaches other clients; silenced senders get the standard
// one.
func (s *Server) Quit(u *User, message string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !u.LoggedIn() {
		s.dropConnection(u)
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	message = sanitizeQuitMessage(message, s.cfg.MaxQuitMessageLength)
	if s.ctrl.IsSilenced(u.Addr) {
		message = standardQuitMessage
	}
	s.quit(u, message)
	return nil
}

// forceQuit removes a session on the server's initiative.
func (s *Server) forceQuit(u *User, reason string) {
	u.AddEvent(InfoMessageEvent{Message: reason})
	if u.LoggedIn() {
		s.quit(u, reason)
		return
	}
	s.dropConnection(u)
}

// quit is idempotent: the first caller claims the session by clearing its
// logged-in flag, so a sweep force-quit racing a client quit broadcasts once.
func (s *Server) quit(u *User, message string) {
	u.mu.Lock()
	claimed := u.loggedIn
	u.loggedIn = false
	u.mu.Unlock()
	if !claimed {
		s.dropConnection(u)
		return
	}

	if g := u.Game(); g != nil {
		if err := s.quitGame(u); err != nil {
			logx.Warn("quit-game during quit failed", "userID", u.ID, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.users, u.ID)
	s.mu.Unlock()

	s.chatFlood.Forget(u.ID)
	s.createFlood.Forget(u.ID)
	if s.social != nil {
		s.social.CancelActionsForUser(u.ID)
	}

	logx.Info("user quit", "userID", u.ID, "name", u.Name(), "message", message)
	s.AddEvent(UserQuitEvent{User: u, Message: message})
	// The quitter gets its own quit event too, so its worker sees the
	// termination on the queue before it closes.
	u.AddEvent(UserQuitEvent{User: u, Message: message})
	u.stop()
	s.updateGauges()
}

// dropConnection discards a session that never finished logging in.
func (s *Server) dropConnection(u *User) {
	s.mu.Lock()
	delete(s.users, u.ID)
	s.mu.Unlock()
	u.stop()
}

// Announce sends a server notice. With a target it goes to that session alone;
// otherwise it reaches every user, and with gamesAlso set it is also relayed
// into every open game as game chat.
func (s *Server) Announce(message string, gamesAlso bool, target *User) {
	if target != nil {
		target.AddEvent(InfoMessageEvent{Message: message})
		return
	}
	for _, u := range s.loggedInUsers() {
		u.AddEvent(InfoMessageEvent{Message: message})
	}
	if gamesAlso {
		for _, g := range s.gameSnapshot() {
			g.addEvent(GameChatEvent{User: nil, Message: message})
		}
	}
}

// AnnounceFrom is the moderation broadcast: every logged-in user gets the
// notice, except non-elevated users who have the announcer's address on their
// ignore list. With gameRelay set the announcer's current game also receives
// the notice as game chat.
func (s *Server) AnnounceFrom(announcer *User, message string, gameRelay bool) {
	for _, u := range s.loggedInUsers() {
		if u.AccessLevel() < access.Admin && u.isIgnoring(announcer.Addr) {
			continue
		}
		u.AddEvent(InfoMessageEvent{Message: message})
	}
	if gameRelay {
		if g := announcer.Game(); g != nil {
			g.addEvent(GameChatEvent{User: nil, Message: message})
		}
	}
}

// PostGameNotice drops a server-attributed chat line into one game, if it is
// still open.
func (s *Server) PostGameNotice(gameID uint16, message string) {
	s.mu.Lock()
	g := s.games[gameID]
	s.mu.Unlock()
	if g != nil {
		g.addEvent(GameChatEvent{User: nil, Message: message})
	}
}

// AddEvent fans an event to every logged-in session, honoring the lobby
// suppression rules for in-game peer-to-peer clients, and mirrors it to
// monitor subscribers.
func (s *Server) AddEvent(e Event) {
	for _, u := range s.loggedInUsers() {
		u.mu.Lock()
		suppress := u.p2p && u.status != StatusIdle && lobbySuppressed(e)
		u.mu.Unlock()
		if suppress {
			continue
		}
		u.AddEvent(e)
	}

	s.mu.Lock()
	for ch := range s.monitors {
		select {
		case ch <- e:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe attaches a monitor to the event stream. The returned cancel
// function detaches it and closes the channel.
func (s *Server) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	s.mu.Lock()
	s.monitors[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.monitors[ch]; ok {
			delete(s.monitors, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Users returns a snapshot of every session.
func (s *Server) Users() []*User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userSnapshotLocked()
}

// Games returns a snapshot of every open game.
func (s *Server) Games() []*Game {
	return s.gameSnapshot()
}

func (s *Server) userSnapshotLocked() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *Server) loggedInUsers() []*User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if u.LoggedIn() {
			out = append(out, u)
		}
	}
	return out
}

func (s *Server) gameSnapshot() []*Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out
}

func (s *Server) knownSession(u *User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[u.ID] == u
}

func (s *Server) sessionAddressMatches(u *User) bool {
	s.mu.Lock()
	registered, ok := s.users[u.ID]
	s.mu.Unlock()
	return ok && registered == u && registered.Addr == u.Addr
}

func (s *Server) connectionTypeAllowed(ct byte) bool {
	for _, allowed := range s.cfg.ConnectionTypes {
		if byte(allowed) == ct {
			return true
		}
	}
	return false
}

func (s *Server) updateGauges() {
	if s.gauges == nil {
		return
	}
	var idle, playing int
	for _, u := range s.loggedInUsers() {
		if u.Status() == StatusPlaying {
			playing++
		} else {
			idle++
		}
	}
	var waiting, inPlay int
	for _, g := range s.gameSnapshot() {
		if g.Status() == GameWaiting {
			waiting++
		} else {
			inPlay++
		}
	}
	s.gauges.RecordUsers(idle, playing)
	s.gauges.RecordGames(waiting, inPlay)
}

// hasControlChars reports whether the text carries bytes below space.
func hasControlChars(text string) bool {
	for _, r := range text {
		if r < 32 {
			return true
		}
	}
	return false
}

// standardQuitMessage stands in when the client's parting text is empty,
// over-length, or comes from a silenced address.
const standardQuitMessage = "User Quit"

// sanitizeQuitMessage strips control characters and substitutes the standard
// parting text when nothing presentable remains.
func sanitizeQuitMessage(message string, limit int) string {
	var sb strings.Builder
	for _, r := range message {
		if r >= 32 {
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if strings.TrimSpace(out) == "" || (limit > 0 && len(out) > limit) {
		return standardQuitMessage
	}
	return out
}
