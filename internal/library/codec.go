package library

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	recordSep = ";;"
	fieldSep  = "|"
)

// Encode returns the compact preference form of books: "name|path" records
// joined by ";;", ordered by name. Names or paths containing either
// separator do not survive a round trip.
func Encode(books []Book) string {
	sorted := make([]Book, len(books))
	copy(sorted, books)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	records := make([]string, len(sorted))
	for i, b := range sorted {
		records[i] = b.Name + fieldSep + b.FilePath
	}
	return strings.Join(records, recordSep)
}

// Decode parses the compact form. Records with fewer than two fields are
// skipped, so malformed input yields fewer (possibly zero) books rather than
// an error. A third numeric field, present in values written by older
// versions, is read as the added time in epoch milliseconds; otherwise the
// book's added time is now. Later duplicates of a name win.
func Decode(value string, now time.Time) []Book {
	var books []Book
	seen := make(map[string]int)

	for _, record := range splitNonEmpty(value, recordSep) {
		fields := splitNonEmpty(record, fieldSep)
		if len(fields) < 2 {
			continue
		}
		b := Book{Name: fields[0], FilePath: fields[1], AddedAt: now}
		if len(fields) >= 3 {
			if ms, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				b.AddedAt = time.UnixMilli(ms)
			}
		}
		if i, ok := seen[b.Name]; ok {
			books[i] = b
			continue
		}
		seen[b.Name] = len(books)
		books = append(books, b)
	}
	return books
}

// splitNonEmpty splits s on sep and drops trailing empty fields, the way the
// older string format was read back.
func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
