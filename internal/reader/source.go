package reader

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

var pageImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// DirSource serves a document from a directory of pre-rendered page images,
// one file per page in lexical order. It keeps decoded pages out of memory;
// every render reads from disk and scales to the requested width.
type DirSource struct {
	pages []string
}

// NewDirSource scans dir for page images.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading page directory: %w", err)
	}

	var pages []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pageImageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			pages = append(pages, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(pages)

	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images in %s", dir)
	}
	return &DirSource{pages: pages}, nil
}

// PageCount returns the number of pages.
func (d *DirSource) PageCount() int { return len(d.pages) }

// RenderPage loads a page image and scales it to the given width,
// preserving aspect ratio.
func (d *DirSource) RenderPage(ctx context.Context, page, width int) (image.Image, error) {
	if page < 1 || page > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range [1,%d]", page, len(d.pages))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(d.pages[page-1])
	if err != nil {
		return nil, fmt.Errorf("opening page %d: %w", page, err)
	}
	if width > 0 && img.Bounds().Dx() != width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	return img, nil
}
