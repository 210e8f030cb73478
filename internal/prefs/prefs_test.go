package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// Missing key loads as empty
	v, err := store.Load("book_library")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v != "" {
		t.Errorf("Expected empty value for unknown key, got %q", v)
	}

	if err := store.Save("book_library", "A|/a.txt;;"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	v, _ = store.Load("book_library")
	if v != "A|/a.txt;;" {
		t.Errorf("Expected saved value, got %q", v)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("prefs file not written: %v", err)
	}
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	store1, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	store1.Save("book_library", "甲|/书/甲.txt")
	store1.Save("other", "x")

	// New instance should load persisted data
	store2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if v, _ := store2.Load("book_library"); v != "甲|/书/甲.txt" {
		t.Errorf("Expected persisted value, got %q", v)
	}
	if v, _ := store2.Load("other"); v != "x" {
		t.Errorf("Expected persisted value, got %q", v)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	store, err := NewFileStore(path)
	if err == nil {
		t.Error("Expected parse error to be reported")
	}
	if store == nil {
		t.Fatal("Corrupt prefs should still yield a usable store")
	}

	if v, _ := store.Load("book_library"); v != "" {
		t.Errorf("Expected empty store, got %q", v)
	}

	// Saving repairs the file
	if err := store.Save("book_library", "A|/a.txt"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore after repair failed: %v", err)
	}
	if v, _ := store2.Load("book_library"); v != "A|/a.txt" {
		t.Errorf("Expected repaired value, got %q", v)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if v, _ := m.Load("k"); v != "" {
		t.Errorf("Expected empty, got %q", v)
	}
	m.Save("k", "v")
	if v, _ := m.Load("k"); v != "v" {
		t.Errorf("Expected v, got %q", v)
	}
}
