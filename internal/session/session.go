// Package session ties the loader, bookmarks and library together for a UI.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/metcalfc/txtr/internal/bookmark"
	"github.com/metcalfc/txtr/internal/document"
	"github.com/metcalfc/txtr/internal/library"
	"github.com/metcalfc/txtr/internal/logger"
)

var (
	ErrNoDocument    = errors.New("session: no document loaded")
	ErrEmptyDocument = errors.New("session: document has no lines")
	ErrLoadInFlight  = errors.New("session: a document is already loading")
	ErrEmptyName     = errors.New("session: name is empty")
	ErrNotLocal      = errors.New("session: document is not a local file")
)

// Loader reads a document from a path or URL.
type Loader interface {
	Load(ctx context.Context, source string) (*document.Document, error)
}

// Session holds the current document and the stores the reader acts on.
// Only one load runs at a time and the current document is replaced only
// when a load succeeds.
type Session struct {
	loader    Loader
	bookmarks *bookmark.Store
	library   *library.Store
	now       func() time.Time
	log       logger.Logger

	mu      sync.Mutex
	doc     *document.Document
	loading bool
}

// New returns a session with no document loaded.
func New(loader Loader, lib *library.Store, log logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		loader:    loader,
		bookmarks: bookmark.NewStore(),
		library:   lib,
		now:       time.Now,
		log:       log,
	}
}

// LoadDocument loads source and makes it the current document. On failure
// the previous document stays current.
func (s *Session) LoadDocument(ctx context.Context, source string) (*document.Document, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	s.loading = true
	s.mu.Unlock()

	doc, err := s.loader.Load(ctx, source)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return nil, err
	}

	s.doc = doc
	if document.IsURLKey(doc.Key) {
		// URL text has no stable identity across sessions.
		s.bookmarks.Clear()
	}
	return doc, nil
}

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Document returns the current document, or nil.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Resume returns the line bookmarked for the current document.
func (s *Session) Resume() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0, false
	}
	b, ok := s.bookmarks.Get(s.doc.Key)
	if !ok {
		return 0, false
	}
	return b.LineNumber, true
}

// JumpToLine returns the character offset line n starts at.
func (s *Session) JumpToLine(n int) int {
	doc := s.Document()
	if doc == nil {
		return 0
	}
	return doc.LineToOffset(n)
}

// CurrentLine returns the line holding the character offset.
func (s *Session) CurrentLine(offset int) int {
	doc := s.Document()
	if doc == nil {
		return 0
	}
	return doc.OffsetToLine(offset)
}

// AddBookmark bookmarks the line holding caretOffset in the current
// document, replacing the document's previous bookmark.
func (s *Session) AddBookmark(name string, caretOffset int) (bookmark.Bookmark, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bookmark.Bookmark{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return bookmark.Bookmark{}, ErrNoDocument
	}
	if s.doc.LineCount() == 0 {
		return bookmark.Bookmark{}, ErrEmptyDocument
	}

	line := s.doc.OffsetToLine(caretOffset)
	b := s.bookmarks.Add(s.doc.Key, name, line, s.now())
	s.log.Debug("bookmark added", logger.String("key", s.doc.Key), logger.Int("line", line))
	return b, nil
}

// Bookmarks returns every bookmark of the session.
func (s *Session) Bookmarks() []bookmark.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks.List()
}

// DeleteBookmark removes b.
func (s *Session) DeleteBookmark(b bookmark.Bookmark) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks.Delete(b)
}

// Library returns the library store.
func (s *Session) Library() *library.Store {
	return s.library
}

// AddCurrentToLibrary adds the current local document to the library.
func (s *Session) AddCurrentToLibrary(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	doc := s.Document()
	if doc == nil {
		return ErrNoDocument
	}
	if document.IsURLKey(doc.Key) {
		return ErrNotLocal
	}
	return s.library.Add(name, doc.Source)
}

// OpenFromLibrary loads the library book stored under name.
func (s *Session) OpenFromLibrary(ctx context.Context, name string) (*document.Document, error) {
	book, ok := s.library.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in the library", library.ErrNotFound, name)
	}
	req, err := s.library.Open(book)
	if err != nil {
		return nil, err
	}
	return s.LoadDocument(ctx, req.Path)
}
