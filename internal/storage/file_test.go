package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sessions.json")
	st, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	if _, ok, _ := st.Get("100/0"); ok {
		t.Fatal("unexpected hit on empty store")
	}

	if err := st.Set("100/0", `{"offset":10}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set("global", "100:0|5"); err != nil {
		t.Fatalf("set global: %v", err)
	}

	v, ok, err := st.Get("100/0")
	if err != nil || !ok || v != `{"offset":10}` {
		t.Fatalf("get: %q ok=%v err=%v", v, ok, err)
	}

	keys, err := st.Keys()
	if err != nil || len(keys) != 2 {
		t.Fatalf("keys: %v err=%v", keys, err)
	}

	if err := st.Delete("100/0"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := st.Get("100/0"); ok {
		t.Fatal("key survived delete")
	}

	// Reopen and confirm persistence.
	st2, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, _ = st2.Get("global")
	if !ok || v != "100:0|5" {
		t.Fatalf("persisted value lost: %q ok=%v", v, ok)
	}
}

func TestFileStore_CorruptFileSelfHeals(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sessions.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	st, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	if _, ok, err := st.Get("anything"); ok || err != nil {
		t.Fatalf("corrupt store should read as empty, ok=%v err=%v", ok, err)
	}
	if err := st.Set("k", "v"); err != nil {
		t.Fatalf("set after corruption: %v", err)
	}
	v, ok, _ := st.Get("k")
	if !ok || v != "v" {
		t.Fatalf("store did not recover: %q ok=%v", v, ok)
	}
}
