package cache

import (
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	if _, found := c.Get("missing"); found {
		t.Error("unexpected hit on empty cache")
	}

	if err := c.Set("key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get("key")
	if !found || string(val) != "value" {
		t.Errorf("get after set: found=%v val=%q", found, val)
	}

	if err := c.Delete("key"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("key"); found {
		t.Error("hit after delete")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("key", []byte("value"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh instance over the same directory sees the entry: disk
	// entries survive the process.
	c2 := NewDiskCache(dir, time.Hour)
	val, found := c2.Get("key")
	if !found || string(val) != "value" {
		t.Errorf("get from second instance: found=%v val=%q", found, val)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("key", []byte("value"), -time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("key"); found {
		t.Error("expired entry must miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Seed disk only, then read through a fresh layered cache.
	seed := NewDiskCache(dir, time.Hour)
	if err := seed.Set("key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	layered := NewLayeredCache(time.Hour, dir, time.Hour)
	val, found := layered.Get("key")
	if !found || string(val) != "value" {
		t.Fatalf("layered read-through: found=%v val=%q", found, val)
	}

	// After promotion the memory layer answers even if disk is cleared.
	if err := seed.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	val, found = layered.Get("key")
	if !found || string(val) != "value" {
		t.Errorf("promoted entry lost: found=%v val=%q", found, val)
	}
}

func TestLayeredCache_WritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := layered.Set("key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	disk := NewDiskCache(dir, time.Hour)
	if _, found := disk.Get("key"); !found {
		t.Error("layered set must reach the disk layer")
	}
}
