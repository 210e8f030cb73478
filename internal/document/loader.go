package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/metcalfc/txtr/internal/logger"
)

const (
	// DefaultCharset is used when Loader.Charset is empty.
	DefaultCharset = "utf-8"

	// DefaultTimeout bounds a URL load when Loader.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	urlKeyPrefix = "url_"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads local files and HTTP(S) URLs into Documents.
type Loader struct {
	Client  *http.Client
	Charset string
	Timeout time.Duration
	Log     logger.Logger
}

// NewLoader returns a Loader decoding text in charset. An empty charset means
// UTF-8.
func NewLoader(charset string, timeout time.Duration, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		Client:  &http.Client{},
		Charset: charset,
		Timeout: timeout,
		Log:     log,
	}
}

// IsURL reports whether source names an HTTP(S) resource rather than a path.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load reads source completely and returns the indexed Document. Nothing is
// returned unless the whole read succeeds.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	source = strings.TrimSpace(source)
	start := time.Now()

	var (
		doc *Document
		err error
	)
	if IsURL(source) {
		doc, err = l.loadURL(ctx, source)
	} else {
		doc, err = l.loadFile(source)
	}
	if err != nil {
		l.Log.Warn("document load failed", logger.String("source", source), logger.Error(err))
		return nil, err
	}

	l.Log.Info("document loaded",
		logger.String("source", source),
		logger.Int("lines", doc.LineCount()),
		logger.Int("chapters", len(doc.Chapters)),
		logger.Duration("took", time.Since(start)),
	)
	return doc, nil
}

func (l *Loader) loadFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if f := lookupFormat(abs); f != nil {
		lines, err := f.Extract(abs)
		if err != nil {
			return nil, err
		}
		return New(abs, FileKey(abs), lines), nil
	}

	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIO, abs, err)
	}

	text, err := l.decode(data)
	if err != nil {
		return nil, err
	}
	return New(abs, FileKey(abs), SplitLines(text)), nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (*Document, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %w", ErrIO, err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrIO, rawURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrIO, err)
	}

	text, err := l.decode(data)
	if err != nil {
		return nil, err
	}
	lines := SplitLines(text)
	return New(rawURL, URLKey(lines), lines), nil
}

// decode converts raw bytes to a string in the loader's charset.
func (l *Loader) decode(data []byte) (string, error) {
	charset := strings.ToLower(strings.TrimSpace(l.Charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", ErrDecode
		}
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: unknown charset %q", ErrDecode, l.Charset)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines splits text on "\n", "\r\n" or a lone "\r". A final line break
// does not start another line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(lineBreaks.Replace(text), "\n")
	return strings.Split(text, "\n")
}

// FileKey returns the identity key of a local document.
func FileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// URLKey returns the identity key of a document loaded from a URL, derived
// from its content.
func URLKey(lines []string) string {
	return fmt.Sprintf("%s%016x", urlKeyPrefix, xxh3.HashString(strings.Join(lines, "\n")))
}

// IsURLKey reports whether key identifies URL-loaded content.
func IsURLKey(key string) bool {
	return strings.HasPrefix(key, urlKeyPrefix)
}
