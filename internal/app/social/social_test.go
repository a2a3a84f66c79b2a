package social

import (
	"sync"
	"testing"
	"time"
)

func TestBroadcastFiresAfterDelay(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var posted []string
	b := NewBroadcaster(10*time.Millisecond, func(gameID uint16, message string) {
		mu.Lock()
		posted = append(posted, message)
		mu.Unlock()
	})

	b.ReportAndStartTimer(1, "Super Game (U)", 7, "mario")

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(posted)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("broadcast never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if b.PendingCount() != 0 {
		t.Fatalf("pending = %d after firing, want 0", b.PendingCount())
	}
}

func TestCancelStopsPendingBroadcast(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	b := NewBroadcaster(20*time.Millisecond, func(gameID uint16, message string) {
		fired <- struct{}{}
	})

	b.ReportAndStartTimer(1, "Super Game (U)", 7, "mario")
	b.CancelActionsForUser(7)

	select {
	case <-fired:
		t.Fatal("cancelled broadcast still fired")
	case <-time.After(100 * time.Millisecond):
	}
	if b.PendingCount() != 0 {
		t.Fatalf("pending = %d after cancel, want 0", b.PendingCount())
	}
}

func TestNewReportReplacesPrevious(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var posted []uint16
	b := NewBroadcaster(10*time.Millisecond, func(gameID uint16, message string) {
		mu.Lock()
		posted = append(posted, gameID)
		mu.Unlock()
	})

	b.ReportAndStartTimer(1, "First Game", 7, "mario")
	b.ReportAndStartTimer(2, "Second Game", 7, "mario")

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(posted) != 1 || posted[0] != 2 {
		t.Fatalf("posted games = %v, want only the replacement game 2", posted)
	}
}
