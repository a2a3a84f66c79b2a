package access

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"krelay/internal/app/db"
	"krelay/internal/pkg/logx"
)

// Postgres is a Controller whose rule sets live in the database. Rules are
// loaded into an in-memory snapshot; the registry's maintenance sweep calls
// Refresh so bans and silences applied through the operator API take effect
// on live sessions without a restart.
type Postgres struct {
	pool *pgxpool.Pool

	mu    sync.RWMutex
	lists Lists
}

// NewPostgres connects the controller to a pool and loads the first snapshot.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	p := &Postgres{pool: pool}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh reloads every rule set from the database, replacing the snapshot
// atomically. Expired bans and silences are filtered out by the queries.
func (p *Postgres) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var lists Lists
	var err error

	if lists.Banned, err = p.loadPatterns(ctx,
		`SELECT pattern FROM banned_addresses WHERE expires_at IS NULL OR expires_at > now()`); err != nil {
		return err
	}
	if lists.Admin, err = p.loadPatterns(ctx,
		`SELECT pattern FROM admin_addresses WHERE level = 'admin'`); err != nil {
		return err
	}
	if lists.SuperAdmin, err = p.loadPatterns(ctx,
		`SELECT pattern FROM admin_addresses WHERE level = 'superadmin'`); err != nil {
		return err
	}
	if lists.Silenced, err = p.loadPatterns(ctx,
		`SELECT pattern FROM silenced_addresses WHERE expires_at IS NULL OR expires_at > now()`); err != nil {
		return err
	}
	if lists.RestrictedEmulators, err = p.loadPatterns(ctx,
		`SELECT pattern FROM restricted_emulators`); err != nil {
		return err
	}
	if lists.RestrictedGames, err = p.loadPatterns(ctx,
		`SELECT pattern FROM restricted_games`); err != nil {
		return err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT address_pattern, message FROM announcements WHERE expires_at IS NULL OR expires_at > now()`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.Pattern, &a.Message); err != nil {
			return err
		}
		lists.Announcements = append(lists.Announcements, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	p.lists = lists
	p.mu.Unlock()

	logx.Debug("access snapshot refreshed",
		"banned", len(lists.Banned), "silenced", len(lists.Silenced))
	return nil
}

func (p *Postgres) loadPatterns(ctx context.Context, query string) ([]string, error) {
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var pattern string
		if err := rows.Scan(&pattern); err != nil {
			return nil, err
		}
		out = append(out, pattern)
	}
	return out, rows.Err()
}

// snapshot copies the rule sets out under the lock. Refresh swaps in whole new
// slices and never appends to published ones, so the shallow copy is safe to
// read after the lock is released.
func (p *Postgres) snapshot() Lists {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lists
}

func (p *Postgres) GetAccess(addr string) int {
	lists := p.snapshot()
	return lists.access(addr)
}

func (p *Postgres) IsEmulatorAllowed(emulator string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !matchAny(p.lists.RestrictedEmulators, emulator)
}

func (p *Postgres) IsGameAllowed(game string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !matchAny(p.lists.RestrictedGames, game)
}

func (p *Postgres) IsSilenced(addr string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return matchAny(p.lists.Silenced, addr)
}

func (p *Postgres) GetAnnouncement(addr string) string {
	lists := p.snapshot()
	return lists.announcement(addr)
}

// AddBan records a ban for an address pattern. A nil expiry makes it permanent.
// The new rule reaches live sessions at the next Refresh.
func (p *Postgres) AddBan(ctx context.Context, pattern, reason string, expiresAt *time.Time) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO banned_addresses (pattern, reason, expires_at) VALUES ($1, $2, $3)`,
		pattern, reason, expiresAt)
	if db.IsUniqueViolation(err) {
		_, err = p.pool.Exec(ctx,
			`UPDATE banned_addresses SET reason = $2, expires_at = $3 WHERE pattern = $1`,
			pattern, reason, expiresAt)
	}
	return err
}

// AddSilence mutes an address pattern until expiresAt (nil for permanent).
func (p *Postgres) AddSilence(ctx context.Context, pattern string, expiresAt *time.Time) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO silenced_addresses (pattern, expires_at) VALUES ($1, $2)`,
		pattern, expiresAt)
	if db.IsUniqueViolation(err) {
		_, err = p.pool.Exec(ctx,
			`UPDATE silenced_addresses SET expires_at = $2 WHERE pattern = $1`,
			pattern, expiresAt)
	}
	return err
}
