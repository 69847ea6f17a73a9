package driver_test

import (
	"testing"

	"ilwasm/internal/driver"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := driver.CacheKey([]byte("program"), "v1")
	b := driver.CacheKey([]byte("program"), "v1")
	if a != b {
		t.Fatalf("same input hashed differently: %s vs %s", a, b)
	}
	if a.IsZero() {
		t.Fatal("key should be non-zero")
	}
	if driver.CacheKey([]byte("program"), "v2") == a {
		t.Fatal("fingerprint does not change the key")
	}
	if driver.CacheKey([]byte("programs"), "v1") == a {
		t.Fatal("content does not change the key")
	}
	if len(a.String()) != 64 {
		t.Fatalf("String() = %q, want 64 hex digits", a.String())
	}
}
