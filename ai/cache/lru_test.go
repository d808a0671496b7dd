package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string, int](3, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[string, int](2, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[string, int](10, time.Minute)

	c.Set("short", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to be dropped")
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := NewLRUCache[string, int](2, time.Minute)

	c.Set("a", 1, 0)
	c.Set("a", 2, 0)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	c := NewLRUCache[string, int](10, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("Remove(a) twice should return false")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", c.Size())
	}
}
