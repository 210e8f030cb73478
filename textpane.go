//go:build gui

package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// readerText is a multi-line entry that can be scrolled, navigated and
// copied from but not edited. Wrapping is off so every entry row is exactly
// one document line.
type readerText struct {
	widget.Entry
}

func newReaderText() *readerText {
	t := &readerText{}
	t.MultiLine = true
	t.Wrapping = fyne.TextWrapOff
	t.ExtendBaseWidget(t)
	return t
}

// TypedRune drops typed characters.
func (t *readerText) TypedRune(rune) {}

// TypedKey passes cursor movement through and drops everything else.
func (t *readerText) TypedKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyUp, fyne.KeyDown, fyne.KeyLeft, fyne.KeyRight,
		fyne.KeyPageUp, fyne.KeyPageDown, fyne.KeyHome, fyne.KeyEnd:
		t.Entry.TypedKey(key)
	}
}

// TypedShortcut allows copy and select all only.
func (t *readerText) TypedShortcut(s fyne.Shortcut) {
	switch s.(type) {
	case *fyne.ShortcutCopy, *fyne.ShortcutSelectAll:
		t.Entry.TypedShortcut(s)
	}
}

// line returns the document line holding the cursor.
func (t *readerText) line() int {
	return t.CursorRow
}

// moveTo puts the cursor at the start of line.
func (t *readerText) moveTo(line int) {
	t.CursorRow = line
	t.CursorColumn = 0
	t.Refresh()
}
