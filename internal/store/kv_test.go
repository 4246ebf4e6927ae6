package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/weeklycart/internal/database"
	"github.com/dukerupert/weeklycart/internal/model"
)

func setupKVTestDB(t *testing.T) *KVStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewKVStore(db)
}

func TestKVRoundTrip(t *testing.T) {
	kv := setupKVTestDB(t)

	in := map[string]int{"a": 1, "b": 2}
	if err := kv.Set("numbers", in); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out map[string]int
	found, err := kv.Get("numbers", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestKVGetMissingKey(t *testing.T) {
	kv := setupKVTestDB(t)

	var out string
	found, err := kv.Get("nope", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("expected missing key to report not found")
	}
}

func TestKVOverwrite(t *testing.T) {
	kv := setupKVTestDB(t)

	if err := kv.Set("k", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("k", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var out string
	if _, err := kv.Get("k", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "second" {
		t.Errorf("got %q, want %q", out, "second")
	}
}

func TestKVDelete(t *testing.T) {
	kv := setupKVTestDB(t)

	if err := kv.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var out string
	found, err := kv.Get("k", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("expected deleted key to be gone")
	}
}

func TestKVQuotaExceeded(t *testing.T) {
	kv := setupKVTestDB(t)

	huge := strings.Repeat("x", maxValueBytes+1)
	err := kv.Set("huge", huge)
	if err == nil {
		t.Fatal("expected quota error")
	}
	var perr *model.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %T", err)
	}
	if perr.Key != "huge" {
		t.Errorf("error key = %q, want %q", perr.Key, "huge")
	}
}

func TestKVCheckSpace(t *testing.T) {
	kv := setupKVTestDB(t)

	if err := kv.CheckSpace("small value"); err != nil {
		t.Errorf("small value should fit: %v", err)
	}
	if err := kv.CheckSpace(strings.Repeat("x", maxValueBytes+1)); err == nil {
		t.Error("expected oversized value to be rejected")
	}
}
