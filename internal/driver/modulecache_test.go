package driver_test

import (
	"testing"

	"ilwasm/internal/driver"
)

func TestMemCacheHitMiss(t *testing.T) {
	c := driver.NewMemCache(16)
	var d1, d2 driver.Digest
	d1[0] = 1
	d2[0] = 2

	r := &driver.Result{Path: "a.irmp", Name: "A"}
	c.Put("a.irmp", d1, r)

	if _, ok := c.Get("a.irmp", d2); ok {
		t.Fatal("expected miss on different content hash")
	}
	if _, ok := c.Get("b.irmp", d1); ok {
		t.Fatal("expected miss on different path")
	}
	got, ok := c.Get("a.irmp", d1)
	if !ok {
		t.Fatal("expected hit")
	}
	if got != r {
		t.Fatal("wrong result returned")
	}
	var nilCache *driver.MemCache
	if _, ok := nilCache.Get("a.irmp", d1); ok {
		t.Fatal("nil cache should always miss")
	}
}
