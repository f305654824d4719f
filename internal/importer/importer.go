// Package importer bulk-loads book files into the catalog.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/progress"
)

// Importer reads book files matching glob patterns and inserts them into
// the catalog. Files may be JSON or YAML, holding a single book or a list.
type Importer struct {
	store    *catalog.Store
	reporter progress.Reporter

	// Verbose logs skipped entries to Log (os.Stderr when nil).
	Verbose bool
	Log     io.Writer
}

// Result summarizes one import run.
type Result struct {
	Files    int
	Imported int
	Skipped  int // entries failing validation
}

func New(store *catalog.Store, reporter progress.Reporter) *Importer {
	return &Importer{store: store, reporter: reporter}
}

func (im *Importer) logWriter() io.Writer {
	if im.Log != nil {
		return im.Log
	}
	return os.Stderr
}

// Run imports every file matched by the patterns. Patterns use doublestar
// syntax, so "books/**/*.json" descends into subdirectories.
func (im *Importer) Run(ctx context.Context, patterns []string) (Result, error) {
	var result Result

	files, err := expand(patterns)
	if err != nil {
		return result, err
	}
	result.Files = len(files)
	if len(files) == 0 {
		return result, nil
	}

	im.reporter.Start(len(files))
	defer im.reporter.Finish()

	for i, path := range files {
		im.reporter.Update(i+1, filepath.Base(path))

		reqs, err := parseFile(path)
		if err != nil {
			return result, fmt.Errorf("parsing %s: %w", path, err)
		}

		for _, req := range reqs {
			if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
				result.Skipped++
				if im.Verbose {
					fmt.Fprintf(im.logWriter(), "skipping entry without title or author in %s\n", path)
				}
				continue
			}
			if err := im.store.InsertBook(ctx, req.Book()); err != nil {
				return result, fmt.Errorf("importing from %s: %w", path, err)
			}
			result.Imported++
		}
	}
	return result, nil
}

func expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseFile reads one book file. A file may contain a single object or an
// array of objects.
func parseFile(path string) ([]catalog.CreateBookRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// YAML files are converted to JSON so both formats bind through the
	// same field tags.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, err
		}
	}

	var many []catalog.CreateBookRequest
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one catalog.CreateBookRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []catalog.CreateBookRequest{one}, nil
}
