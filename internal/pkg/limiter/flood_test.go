package limiter

import (
	"testing"
	"time"
)

func TestFloodGuardDeniesInsideWindow(t *testing.T) {
	t.Parallel()

	guard := NewFloodGuard(10 * time.Second)

	if !guard.Allow(7) {
		t.Fatalf("first action should be allowed")
	}
	if guard.Allow(7) {
		t.Fatalf("second action inside the window should be denied")
	}
}

func TestFloodGuardIsPerUser(t *testing.T) {
	t.Parallel()

	guard := NewFloodGuard(10 * time.Second)

	if !guard.Allow(1) {
		t.Fatalf("first action for user 1 should be allowed")
	}
	if !guard.Allow(2) {
		t.Fatalf("user 2 should not share user 1's bucket")
	}
}

func TestFloodGuardZeroWindowDisables(t *testing.T) {
	t.Parallel()

	guard := NewFloodGuard(0)

	for i := 0; i < 5; i++ {
		if !guard.Allow(9) {
			t.Fatalf("zero window must never deny (iteration %d)", i)
		}
	}
}

func TestFloodGuardAllowsAfterWindow(t *testing.T) {
	t.Parallel()

	guard := NewFloodGuard(20 * time.Millisecond)

	if !guard.Allow(3) {
		t.Fatalf("first action should be allowed")
	}

	time.Sleep(30 * time.Millisecond)

	if !guard.Allow(3) {
		t.Fatalf("action after a full window should be allowed")
	}
}

func TestFloodGuardForgetResetsBucket(t *testing.T) {
	t.Parallel()

	guard := NewFloodGuard(time.Hour)

	if !guard.Allow(4) {
		t.Fatalf("first action should be allowed")
	}

	guard.Forget(4)

	if !guard.Allow(4) {
		t.Fatalf("action after Forget should be allowed again")
	}
}
