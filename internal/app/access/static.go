package access

import "krelay/internal/configs"

// Static is a Controller backed by the fixed lists from the environment
// configuration. It is the fallback when no database is configured.
type Static struct {
	lists Lists
}

// NewStatic builds a Static controller from the configured access lists.
func NewStatic(cfg *configs.AppConfig) *Static {
	return &Static{lists: Lists{
		Banned:              cfg.BannedAddresses,
		Admin:               cfg.AdminAddresses,
		Silenced:            cfg.SilencedAddresses,
		RestrictedEmulators: cfg.RestrictedEmulators,
		RestrictedGames:     cfg.RestrictedGames,
	}}
}

func (s *Static) GetAccess(addr string) int {
	return s.lists.access(addr)
}

func (s *Static) IsEmulatorAllowed(emulator string) bool {
	return !matchAny(s.lists.RestrictedEmulators, emulator)
}

func (s *Static) IsGameAllowed(game string) bool {
	return !matchAny(s.lists.RestrictedGames, game)
}

func (s *Static) IsSilenced(addr string) bool {
	return matchAny(s.lists.Silenced, addr)
}

func (s *Static) GetAnnouncement(addr string) string {
	return s.lists.announcement(addr)
}
