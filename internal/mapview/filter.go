package mapview

import (
	"strings"

	"github.com/bookmapapp/bookmap/internal/catalog"
)

// FilterState holds the free-text substring filters applied to every render
// pass. Empty fields are no-ops.
type FilterState struct {
	Tag      string
	Category string
}

// Filter returns the books passing the filters: the category must contain
// the category substring and at least one tag must contain the tag
// substring, both case-insensitively. The input is never mutated, so the
// same filters can run identically after every load, input change, and
// heatmap toggle.
func Filter(books []catalog.Book, f FilterState) []catalog.Book {
	tag := strings.ToLower(strings.TrimSpace(f.Tag))
	category := strings.ToLower(strings.TrimSpace(f.Category))
	if tag == "" && category == "" {
		return books
	}

	var out []catalog.Book
	for _, b := range books {
		if category != "" && !strings.Contains(strings.ToLower(b.Category), category) {
			continue
		}
		if tag != "" && !anyTagContains(b.Tags, tag) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func anyTagContains(tags []string, sub string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), sub) {
			return true
		}
	}
	return false
}
