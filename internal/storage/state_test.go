package storage

import (
	"path/filepath"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, ok, err := db.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := db.Set("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Set("k", "v2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := db.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := db.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := db.Get("k"); ok {
		t.Fatalf("key survived delete")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Set("dispatch.progress", `{"lastIndex":3}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	v, ok, err := db2.Get("dispatch.progress")
	if err != nil || !ok || v != `{"lastIndex":3}` {
		t.Fatalf("value lost across reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}
