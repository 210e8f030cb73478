package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/metcalfc/txtr/internal/logger"
)

// Backup writes every book as a "name|path|addedAtMillis" line to
// library_backup_<epochMillis>.txt in the backup directory, creating the
// directory if needed, and returns the file's path.
func (s *Store) Backup() (string, error) {
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := "library_backup_" + strconv.FormatInt(s.now().UnixMilli(), 10) + ".txt"
	path := filepath.Join(s.backupDir, name)

	if err := writeBackup(path, s.List()); err != nil {
		s.log.Error("library backup failed", logger.String("path", path), logger.Error(err))
		return "", err
	}

	s.log.Info("library backed up", logger.String("path", path), logger.Int("books", len(s.books)))
	return path, nil
}

func writeBackup(path string, books []Book) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close backup: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, b := range books {
		line := b.Name + fieldSep + b.FilePath + fieldSep + strconv.FormatInt(b.AddedAt.UnixMilli(), 10)
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}
