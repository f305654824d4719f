// Package uploads stores book PDF files in a local upload folder.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrNotPDF is returned for files without a .pdf extension.
var ErrNotPDF = errors.New("only PDF files are allowed")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store saves uploaded documents under a single directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the document and returns the stored filename. Names are
// sanitized and prefixed with a timestamp so uploads never collide.
func (s *Store) Save(r io.Reader, filename string) (string, error) {
	if !Allowed(filename) {
		return "", ErrNotPDF
	}

	name := fmt.Sprintf("%d_%s", time.Now().UTC().UnixMilli(), Sanitize(filename))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return name, nil
}

// Open opens a stored document by name. Path traversal is rejected.
func (s *Store) Open(name string) (*os.File, error) {
	if name != filepath.Base(name) || name == "." || name == "" {
		return nil, fmt.Errorf("invalid upload name %q", name)
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// Allowed reports whether the filename has a permitted extension.
func Allowed(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Sanitize strips path components and unsafe characters from a filename.
func Sanitize(filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "document.pdf"
	}
	return base
}
