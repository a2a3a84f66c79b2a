package access

import (
	"testing"

	"krelay/internal/configs"
)

func staticController() *Static {
	return NewStatic(&configs.AppConfig{
		BannedAddresses:     []string{"10.0.0.7", "192.168.1.*"},
		AdminAddresses:      []string{"127.0.0.1"},
		SilencedAddresses:   []string{"10.0.0.9"},
		RestrictedEmulators: []string{"BadEmu*"},
		RestrictedGames:     []string{"Forbidden Game (U)"},
	})
}

func TestGetAccessLevels(t *testing.T) {
	t.Parallel()

	c := staticController()
	cases := []struct {
		addr string
		want int
	}{
		{"10.0.0.7", Banned},
		{"192.168.1.55", Banned},
		{"127.0.0.1", Admin},
		{"8.8.8.8", Normal},
	}
	for _, tc := range cases {
		if got := c.GetAccess(tc.addr); got != tc.want {
			t.Fatalf("GetAccess(%q) = %d, want %d", tc.addr, got, tc.want)
		}
	}
}

func TestPrefixPatterns(t *testing.T) {
	t.Parallel()

	c := staticController()
	if c.IsEmulatorAllowed("BadEmu 2.1") {
		t.Fatal("restricted emulator prefix was allowed")
	}
	if !c.IsEmulatorAllowed("GoodEmu 1.0") {
		t.Fatal("unrestricted emulator was denied")
	}
}

func TestGameRestriction(t *testing.T) {
	t.Parallel()

	c := staticController()
	if c.IsGameAllowed("forbidden game (u)") {
		t.Fatal("restriction match should be case-insensitive")
	}
	if !c.IsGameAllowed("Fine Game (J)") {
		t.Fatal("unrestricted game was denied")
	}
}

func TestSilenceAndAnnouncement(t *testing.T) {
	t.Parallel()

	c := staticController()
	if !c.IsSilenced("10.0.0.9") {
		t.Fatal("silenced address not reported")
	}
	if c.IsSilenced("10.0.0.8") {
		t.Fatal("unsilenced address reported silenced")
	}
	if got := c.GetAnnouncement("10.0.0.9"); got != "" {
		t.Fatalf("static controller carries no announcements, got %q", got)
	}
}

func TestListsAnnouncementOrder(t *testing.T) {
	t.Parallel()

	l := Lists{Announcements: []Announcement{
		{Pattern: "10.*", Message: "first"},
		{Pattern: "10.0.0.1", Message: "second"},
	}}
	if got := l.announcement("10.0.0.1"); got != "first" {
		t.Fatalf("announcement = %q, want first match to win", got)
	}
	if got := l.announcement("11.0.0.1"); got != "" {
		t.Fatalf("announcement for unmatched address = %q, want empty", got)
	}
}
