// Package bookmark keeps the in-session bookmark of each opened document.
package bookmark

import (
	"slices"
	"time"
)

// Bookmark is a named line in a document.
type Bookmark struct {
	Name       string
	LineNumber int
	CreatedAt  time.Time
}

type entry struct {
	key      string
	bookmark Bookmark
}

// Store holds at most one bookmark per document key. Adding a bookmark for a
// key that already has one replaces it. Entries are kept in the order their
// keys were first added. Bookmarks live for the session only.
type Store struct {
	entries []entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add sets the bookmark for key and returns it.
func (s *Store) Add(key, name string, line int, now time.Time) Bookmark {
	b := Bookmark{Name: name, LineNumber: line, CreatedAt: now}
	if i := s.index(key); i >= 0 {
		s.entries[i].bookmark = b
		return b
	}
	s.entries = append(s.entries, entry{key: key, bookmark: b})
	return b
}

// Get returns the bookmark for key.
func (s *Store) Get(key string) (Bookmark, bool) {
	if i := s.index(key); i >= 0 {
		return s.entries[i].bookmark, true
	}
	return Bookmark{}, false
}

// Delete removes the entry holding b and reports whether one was found.
func (s *Store) Delete(b Bookmark) bool {
	i := slices.IndexFunc(s.entries, func(e entry) bool {
		return e.bookmark.Name == b.Name &&
			e.bookmark.LineNumber == b.LineNumber &&
			e.bookmark.CreatedAt.Equal(b.CreatedAt)
	})
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// List returns every bookmark in insertion order.
func (s *Store) List() []Bookmark {
	out := make([]Bookmark, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.bookmark
	}
	return out
}

// Len returns the number of bookmarks.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear drops every bookmark.
func (s *Store) Clear() {
	s.entries = nil
}

func (s *Store) index(key string) int {
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.key == key })
}
