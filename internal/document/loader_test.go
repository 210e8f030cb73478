package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single line", "hello", []string{"hello"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank lines kept", "a\n\n\nb", []string{"a", "", "", "b"}},
		{"only newline", "\n", []string{""}},
		{"lone carriage return", "a\rb\r", []string{"a", "b"}},
		{"mixed breaks", "a\r\rb\nc\r\n", []string{"a", "", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitLines(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitLines(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	content := "\ufeff第一章 开始\r\nhello\r\n第二章 继续\r\nworld\r\n"
	path := writeFile(t, "book.txt", []byte(content))

	l := NewLoader("", time.Second, nil)
	doc, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"第一章 开始", "hello", "第二章 继续", "world"}
	if len(doc.Lines) != len(want) {
		t.Fatalf("Lines = %q, want %q", doc.Lines, want)
	}
	for i := range want {
		if doc.Lines[i] != want[i] {
			t.Errorf("Lines[%d] = %q, want %q", i, doc.Lines[i], want[i])
		}
	}

	if len(doc.Chapters) != 2 || doc.Chapters[1].StartLine != 2 {
		t.Errorf("Chapters = %+v", doc.Chapters)
	}
	if doc.Key != path || doc.Source != path {
		t.Errorf("Key = %q, Source = %q, want %q", doc.Key, doc.Source, path)
	}
	if IsURLKey(doc.Key) {
		t.Error("local document got a url key")
	}
}

func TestLoadFileRelativePath(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "rel.txt"), []byte("x"), 0644)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	doc, err := NewLoader("", 0, nil).Load(context.Background(), "rel.txt")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !filepath.IsAbs(doc.Key) {
		t.Errorf("Key = %q, want absolute path", doc.Key)
	}
}

func TestLoadFileErrors(t *testing.T) {
	l := NewLoader("", time.Second, nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
		if !errors.Is(err, ErrIO) {
			t.Errorf("error = %v, want ErrIO", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error should wrap os.ErrNotExist: %v", err)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		path := writeFile(t, "bad.txt", []byte{'o', 'k', '\n', 0xff, 0xfe, 0xfd})
		_, err := l.Load(context.Background(), path)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("error = %v, want ErrDecode", err)
		}
		if !errors.Is(err, ErrIO) {
			t.Errorf("ErrDecode should also be ErrIO: %v", err)
		}
	})

	t.Run("unknown charset", func(t *testing.T) {
		path := writeFile(t, "a.txt", []byte("abc"))
		_, err := NewLoader("klingon", time.Second, nil).Load(context.Background(), path)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("error = %v, want ErrDecode", err)
		}
	})
}

func TestLoadFileLegacyCharset(t *testing.T) {
	encoded, err := simplifiedchinese.GB18030.NewEncoder().String("第一章 开始\n正文\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := writeFile(t, "gb.txt", []byte(encoded))

	// Strict UTF-8 refuses it.
	if _, err := NewLoader("utf-8", time.Second, nil).Load(context.Background(), path); !errors.Is(err, ErrDecode) {
		t.Errorf("utf-8 load error = %v, want ErrDecode", err)
	}

	doc, err := NewLoader("gb18030", time.Second, nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("gb18030 load failed: %v", err)
	}
	if len(doc.Lines) != 2 || doc.Lines[0] != "第一章 开始" {
		t.Errorf("Lines = %q", doc.Lines)
	}
	if len(doc.Chapters) != 1 {
		t.Errorf("Chapters = %+v, want one", doc.Chapters)
	}
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book.txt":
			w.Write([]byte("第一章 开始\nhello\n第二章 继续\nworld"))
		case "/same.txt":
			w.Write([]byte("第一章 开始\nhello\n第二章 继续\nworld\n"))
		case "/slow.txt":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader("", 5*time.Second, nil)
	l.Client = srv.Client()

	doc, err := l.Load(context.Background(), srv.URL+"/book.txt")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.LineCount() != 4 || len(doc.Chapters) != 2 {
		t.Errorf("got %d lines, %d chapters", doc.LineCount(), len(doc.Chapters))
	}
	if !IsURLKey(doc.Key) {
		t.Errorf("Key = %q, want url key", doc.Key)
	}
	if doc.Source != srv.URL+"/book.txt" {
		t.Errorf("Source = %q", doc.Source)
	}

	// Identity follows content, not location.
	same, err := l.Load(context.Background(), srv.URL+"/same.txt")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if same.Key != doc.Key {
		t.Errorf("same content keys differ: %q vs %q", same.Key, doc.Key)
	}

	t.Run("not found", func(t *testing.T) {
		_, err := l.Load(context.Background(), srv.URL+"/missing.txt")
		if !errors.Is(err, ErrIO) {
			t.Errorf("error = %v, want ErrIO", err)
		}
		if err != nil && !strings.Contains(err.Error(), "404") {
			t.Errorf("error should mention status: %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		fast := NewLoader("", 20*time.Millisecond, nil)
		fast.Client = srv.Client()
		if _, err := fast.Load(context.Background(), srv.URL+"/slow.txt"); !errors.Is(err, ErrIO) {
			t.Errorf("error = %v, want ErrIO", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := l.Load(ctx, srv.URL+"/book.txt"); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		if _, err := l.Load(context.Background(), "http://127.0.0.1:1/x.txt"); !errors.Is(err, ErrIO) {
			t.Errorf("error = %v, want ErrIO", err)
		}
	})
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"http://example.com/a.txt", true},
		{"HTTPS://example.com/a.txt", true},
		{"/home/me/a.txt", false},
		{"a.txt", false},
		{"ftp://example.com/a.txt", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.source); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestURLKey(t *testing.T) {
	a := URLKey([]string{"x", "y"})
	b := URLKey([]string{"x", "y"})
	c := URLKey([]string{"x", "z"})

	if a != b {
		t.Error("same content should produce same key")
	}
	if a == c {
		t.Error("different content should produce different keys")
	}
	if !strings.HasPrefix(a, "url_") || len(a) != len("url_")+16 {
		t.Errorf("URLKey = %q, want url_ + 16 hex chars", a)
	}
}
