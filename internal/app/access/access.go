/*
Package access decides what a connecting address is allowed to do.

It answers the registry's admission questions: the access level of an address,
whether an emulator client or game title is restricted, whether an address is
silenced, and whether a targeted announcement is waiting for it. Lookups match
against an in-memory snapshot of address patterns so the hot path never blocks;
implementations refresh the snapshot from their backing source.
*/
package access

import "strings"

// Access levels, ordered. Anything above Normal bypasses admission limits.
const (
	Banned     = 0
	Normal     = 1
	Admin      = 2
	SuperAdmin = 3
)

// Controller is the admission oracle consulted by the session registry.
type Controller interface {
	// GetAccess returns the access level for a source address.
	GetAccess(addr string) int

	// IsEmulatorAllowed reports whether the named emulator client may log in.
	IsEmulatorAllowed(emulator string) bool

	// IsGameAllowed reports whether a game with the given ROM name may be created.
	IsGameAllowed(game string) bool

	// IsSilenced reports whether the address is currently muted in chat.
	IsSilenced(addr string) bool

	// GetAnnouncement returns a pending targeted announcement for the address,
	// or the empty string.
	GetAnnouncement(addr string) string
}

// Announcement is a message addressed at a source-address pattern.
type Announcement struct {
	Pattern string
	Message string
}

// Lists is one snapshot of every access rule set.
type Lists struct {
	Banned              []string
	Admin               []string
	SuperAdmin          []string
	Silenced            []string
	RestrictedEmulators []string
	RestrictedGames     []string
	Announcements       []Announcement
}

// match reports whether value matches pattern. A trailing '*' makes the
// pattern a prefix match; otherwise the comparison is exact and case-insensitive.
func match(pattern, value string) bool {
	pattern = strings.ToLower(pattern)
	value = strings.ToLower(value)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(value, prefix)
	}
	return pattern == value
}

func matchAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if match(p, value) {
			return true
		}
	}
	return false
}

func (l *Lists) access(addr string) int {
	switch {
	case matchAny(l.Banned, addr):
		return Banned
	case matchAny(l.SuperAdmin, addr):
		return SuperAdmin
	case matchAny(l.Admin, addr):
		return Admin
	default:
		return Normal
	}
}

func (l *Lists) announcement(addr string) string {
	for _, a := range l.Announcements {
		if match(a.Pattern, addr) {
			return a.Message
		}
	}
	return ""
}
