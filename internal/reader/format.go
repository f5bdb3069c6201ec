package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format defines a file format reader for loading documents.
type Format interface {
	Name() string
	Extensions() []string
	Load(filename string, opts Options) (*Document, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Open loads a file, using a registered format or the plain text fallback.
func Open(filename string, opts Options) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				doc, err := f.Load(filename, opts)
				if err != nil {
					return nil, fmt.Errorf("load %s as %s: %w", filename, f.Name(), err)
				}
				return doc, nil
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromText(filepath.Base(filename), string(data), opts), nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
