package document

import (
	"path/filepath"
	"strings"
)

// Format extracts lines from a file type the plain-text path cannot read.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) ([]string, error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// lookupFormat returns the registered format for filename's extension, or
// nil when the file should be read as plain text.
func lookupFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	out := []string{"Text (any other extension)"}
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
