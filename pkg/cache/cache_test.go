package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get = %v, %v; want 1, true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("a", 1, -time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestCache_InvalidateChannel(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set(Key("member", "chan1", "u1"), "x")
	c.Set(Key("member", "chan1", "u2"), "y")
	c.Set(Key("member", "chan2", "u1"), "z")
	c.Set(Key("trusted", "chan1"), "t")

	removed := c.InvalidateChannel("member", "chan1")
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	if _, ok := c.Get(Key("member", "chan2", "u1")); !ok {
		t.Error("other channel's entry should survive")
	}
	if _, ok := c.Get(Key("trusted", "chan1")); !ok {
		t.Error("other namespace should survive")
	}
}

func TestKey(t *testing.T) {
	got := Key("member", "123", "456")
	if got != "member:123:456" {
		t.Errorf("Key = %q", got)
	}
}
