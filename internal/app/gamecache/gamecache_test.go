package gamecache

import (
	"bytes"
	"fmt"
	"testing"
)

func TestAddAndLookup(t *testing.T) {
	t.Parallel()

	c := New(4)
	key := c.Add([]byte{0x01, 0x02})
	if key != 0 {
		t.Fatalf("first key = %d, want 0", key)
	}
	if got := c.IndexOf([]byte{0x01, 0x02}); got != key {
		t.Fatalf("IndexOf = %d, want %d", got, key)
	}
	data, ok := c.Get(key)
	if !ok || !bytes.Equal(data, []byte{0x01, 0x02}) {
		t.Fatalf("Get(%d) = %v, %v", key, data, ok)
	}
}

func TestMissIsRecoverable(t *testing.T) {
	t.Parallel()

	c := New(4)
	if got := c.IndexOf([]byte{0xFF}); got != -1 {
		t.Fatalf("IndexOf on empty cache = %d, want -1", got)
	}
	if _, ok := c.Get(0); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	if _, ok := c.Get(-1); ok {
		t.Fatal("Get with negative key reported a hit")
	}
}

func TestEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	c := New(3)
	for i := 0; i < 3; i++ {
		c.Add([]byte{byte(i)})
	}
	c.Add([]byte{0xAA})

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if got := c.IndexOf([]byte{0x00}); got != -1 {
		t.Fatalf("oldest entry still present at key %d", got)
	}
	// Surviving entries shift down by one, keeping both sides in lockstep.
	if got := c.IndexOf([]byte{0x01}); got != 0 {
		t.Fatalf("IndexOf({0x01}) = %d, want 0", got)
	}
	if got := c.IndexOf([]byte{0xAA}); got != 2 {
		t.Fatalf("IndexOf({0xAA}) = %d, want 2", got)
	}
}

func TestAddCopiesPayload(t *testing.T) {
	t.Parallel()

	c := New(2)
	payload := []byte{0x01, 0x02}
	key := c.Add(payload)
	payload[0] = 0xFF

	data, ok := c.Get(key)
	if !ok || !bytes.Equal(data, []byte{0x01, 0x02}) {
		t.Fatalf("cached payload mutated through caller's slice: %v", data)
	}
}

func TestCapacityFallback(t *testing.T) {
	t.Parallel()

	for _, bad := range []int{0, -1, 257} {
		c := New(bad)
		for i := 0; i < DefaultSize+10; i++ {
			c.Add([]byte(fmt.Sprintf("p%d", i)))
		}
		if c.Len() != DefaultSize {
			t.Fatalf("New(%d): Len = %d, want %d", bad, c.Len(), DefaultSize)
		}
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New(4)
	c.Add([]byte{0x01})
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", c.Len())
	}
	if got := c.IndexOf([]byte{0x01}); got != -1 {
		t.Fatalf("IndexOf after Clear = %d, want -1", got)
	}
}
