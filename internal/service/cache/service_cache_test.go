package cache

import (
	"testing"
	"time"

	pkgcache "BubbleWatch/pkg/cache"
)

func TestServiceCacheRoundTrip(t *testing.T) {
	c := NewServiceCache(pkgcache.NewMemoryCache())

	if err := c.SetBytes("risk:latest:NVDA", []byte(`{"score":0.9}`), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	b, ok, err := c.GetBytes("risk:latest:NVDA")
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after SetBytes")
	}
	if string(b) != `{"score":0.9}` {
		t.Fatalf("GetBytes = %q, want stored payload back verbatim", b)
	}
}

func TestServiceCacheMissIsNotAnError(t *testing.T) {
	c := NewServiceCache(pkgcache.NewMemoryCache())

	b, ok, err := c.GetBytes("risk:latest:ABSENT")
	if err != nil {
		t.Fatalf("GetBytes on empty cache: %v", err)
	}
	if ok || b != nil {
		t.Fatalf("GetBytes = (%q, %v), want miss", b, ok)
	}
}

func TestServiceCacheExpiry(t *testing.T) {
	c := NewServiceCache(pkgcache.NewMemoryCache())

	if err := c.SetBytes("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, err := c.GetBytes("k"); err != nil || ok {
		t.Fatalf("expired entry: ok=%v err=%v, want miss", ok, err)
	}
}
