// Package library manages the persisted list of books a reader has added.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/metcalfc/txtr/internal/logger"
	"github.com/metcalfc/txtr/internal/prefs"
)

// PrefsKey is the preference key holding the encoded library.
const PrefsKey = "book_library"

// ErrNotFound indicates a library book's file no longer exists.
var ErrNotFound = errors.New("library: book file not found")

// Book is a library entry. Name is unique within a library.
type Book struct {
	Name     string
	FilePath string
	AddedAt  time.Time
}

// OpenRequest asks the caller to load a library book.
type OpenRequest struct {
	Book Book
	Path string
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	BackupDir string           // default <home>/txt_reader_backup
	Now       func() time.Time // default time.Now
	Log       logger.Logger
}

// Store is the library, persisted to a prefs.Store after every change.
type Store struct {
	prefs     prefs.Store
	backupDir string
	now       func() time.Time
	log       logger.Logger
	books     map[string]Book
}

// NewStore loads the library from p. Stored data that cannot be read leaves
// the library empty.
func NewStore(p prefs.Store, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.BackupDir == "" {
		home, _ := os.UserHomeDir()
		opts.BackupDir = filepath.Join(home, "txt_reader_backup")
	}

	s := &Store{
		prefs:     p,
		backupDir: opts.BackupDir,
		now:       opts.Now,
		log:       opts.Log,
	}
	s.load()
	return s
}

func (s *Store) load() {
	s.books = make(map[string]Book)

	value, err := s.prefs.Load(PrefsKey)
	if err != nil {
		s.log.Warn("library load failed, starting empty", logger.Error(err))
		return
	}
	for _, b := range Decode(value, s.now()) {
		s.books[b.Name] = b
	}
	s.log.Debug("library loaded", logger.Int("books", len(s.books)))
}

func (s *Store) save() error {
	if err := s.prefs.Save(PrefsKey, Encode(s.List())); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

// Add records filePath under name, replacing any book of that name.
func (s *Store) Add(name, filePath string) error {
	s.books[name] = Book{Name: name, FilePath: filePath, AddedAt: s.now()}
	return s.save()
}

// Rename moves a book to a new name, keeping its path and added time. It
// does nothing if oldName is not in the library.
func (s *Store) Rename(oldName, newName string) error {
	b, ok := s.books[oldName]
	if !ok {
		return nil
	}
	delete(s.books, oldName)
	b.Name = newName
	s.books[newName] = b
	return s.save()
}

// Remove deletes a book by name. Removing an unknown name is a no-op.
func (s *Store) Remove(name string) error {
	if _, ok := s.books[name]; !ok {
		return nil
	}
	delete(s.books, name)
	return s.save()
}

// Get returns the book stored under name.
func (s *Store) Get(name string) (Book, bool) {
	b, ok := s.books[name]
	return b, ok
}

// List returns a copy of every book ordered by name.
func (s *Store) List() []Book {
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of books.
func (s *Store) Len() int {
	return len(s.books)
}

// Open checks that book's file still exists and returns a request to load
// it. It does not read the file.
func (s *Store) Open(book Book) (OpenRequest, error) {
	info, err := os.Stat(book.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return OpenRequest{}, fmt.Errorf("%w: %s: %w", ErrNotFound, book.FilePath, err)
	}
	if err != nil {
		return OpenRequest{}, fmt.Errorf("failed to stat %s: %w", book.FilePath, err)
	}
	if info.IsDir() {
		return OpenRequest{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, book.FilePath)
	}
	return OpenRequest{Book: book, Path: book.FilePath}, nil
}
