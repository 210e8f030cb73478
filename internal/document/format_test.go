package document

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	for _, f := range formats {
		if f == "EPUB (.epub)" {
			return
		}
	}
	t.Errorf("EPUB not registered: %v", formats)
}

func TestLookupFormat(t *testing.T) {
	if f := lookupFormat("/books/a.EPUB"); f == nil || f.Name() != "EPUB" {
		t.Errorf("lookupFormat(.EPUB) = %v, want EPUB", f)
	}
	if f := lookupFormat("/books/a.txt"); f != nil {
		t.Errorf("lookupFormat(.txt) = %v, want plain text", f)
	}
}

func TestLoadInvalidEPUB(t *testing.T) {
	path := writeFile(t, "broken.epub", []byte("not a zip"))
	_, err := NewLoader("", time.Second, nil).Load(context.Background(), path)
	if !errors.Is(err, ErrIO) {
		t.Errorf("error = %v, want ErrIO", err)
	}

	_, err = NewLoader("", time.Second, nil).Load(context.Background(), filepath.Join(t.TempDir(), "none.epub"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("error = %v, want ErrIO", err)
	}
}

func TestLinesFromHTML(t *testing.T) {
	html := `<html><head><title>ignored</title><style>p{}</style></head>
<body>
<h1>第一章 开始</h1>
<p>Hello <em>brave</em>
   new world.</p>
<div><p>nested</p>tail</div>
<p>line<br/>break</p>
<script>var x = 1;</script>
<p>   </p>
</body></html>`

	got := linesFromHTML(html)
	want := []string{"第一章 开始", "Hello brave new world.", "nested", "tail", "line", "break"}
	if len(got) != len(want) {
		t.Fatalf("linesFromHTML() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("linesFromHTML()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
