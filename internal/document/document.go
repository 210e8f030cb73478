// Package document loads plain-text books, indexes their chapter headings
// and maps between line numbers and character offsets.
package document

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is a fully loaded text with its chapter index.
type Document struct {
	Source   string
	Key      string
	Lines    []string
	Chapters []Chapter

	// starts[i] is the rune offset of line i in the newline-joined text.
	starts []int
	length int
}

// New builds a Document from already split lines, indexing chapters and
// precomputing line offsets.
func New(source, key string, lines []string) *Document {
	d := &Document{
		Source:   source,
		Key:      key,
		Lines:    lines,
		Chapters: IndexChapters(lines),
		starts:   make([]int, len(lines)),
	}

	pos := 0
	for i, line := range lines {
		d.starts[i] = pos
		pos += utf8.RuneCountInString(line) + 1
	}
	// The joined text has no newline after the last line.
	if len(lines) > 0 {
		pos--
	}
	d.length = pos
	return d
}

// Text returns the lines joined with single newlines, as a viewer shows them.
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.Lines)
}

// Len returns the length of Text in runes.
func (d *Document) Len() int {
	return d.length
}

// LineToOffset returns the rune offset at which line n starts. Out of range
// line numbers are clamped.
func (d *Document) LineToOffset(n int) int {
	if n <= 0 || len(d.starts) == 0 {
		return 0
	}
	if n >= len(d.starts) {
		// One past the last line: the sum over every line, clamped to the text.
		return d.length
	}
	return d.starts[n]
}

// OffsetToLine returns the line containing the rune offset x: the last line
// whose start is at or before x. Out of range offsets are clamped.
func (d *Document) OffsetToLine(x int) int {
	if x <= 0 || len(d.starts) == 0 {
		return 0
	}
	i := sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > x })
	return i - 1
}

// ChapterAt returns the index of the chapter containing line n, or -1 when n
// precedes the first heading.
func (d *Document) ChapterAt(n int) int {
	for i := len(d.Chapters) - 1; i >= 0; i-- {
		if n >= d.Chapters[i].StartLine {
			return i
		}
	}
	return -1
}

// ChapterTitle returns the title of the chapter containing line n.
func (d *Document) ChapterTitle(n int) string {
	if i := d.ChapterAt(n); i >= 0 {
		return d.Chapters[i].Title
	}
	return ""
}
