package catalog

import (
	"context"
	"testing"

	"github.com/bookmapapp/bookmap/internal/db"
	"github.com/bookmapapp/bookmap/internal/geo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func insertTestBook(t *testing.T, s *Store, b *Book) *Book {
	t.Helper()
	if err := s.InsertBook(context.Background(), b); err != nil {
		t.Fatalf("InsertBook(%q): %v", b.Title, err)
	}
	return b
}

func TestInsertAndGetBook(t *testing.T) {
	s := newTestStore(t)

	b := insertTestBook(t, s, &Book{
		Title:    "Dune",
		Author:   "Frank Herbert",
		Year:     1965,
		Category: "Science Fiction",
		Tags:     []string{"desert", "politics"},
		Locations: []Location{
			{Lat: 10, Lng: 20, PlaceName: "Arrakeen", Country: "Arrakis"},
			{Lat: 11, Lng: 21, PlaceName: "Sietch Tabr", Country: "Arrakis"},
		},
	})

	if b.ID == "" {
		t.Fatal("expected InsertBook to assign an ID")
	}

	got, err := s.GetBook(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got == nil {
		t.Fatal("expected book, got nil")
	}
	if got.Title != "Dune" || got.Author != "Frank Herbert" {
		t.Errorf("unexpected book: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "desert" {
		t.Errorf("unexpected tags: %v", got.Tags)
	}
	if len(got.Locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(got.Locations))
	}
	if got.Locations[0].PlaceName != "Arrakeen" {
		t.Errorf("expected locations ordered by position, got %+v", got.Locations)
	}
}

func TestGetBookMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetBook(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing book, got %+v", got)
	}
}

func TestBooksInBBox(t *testing.T) {
	s := newTestStore(t)

	inside := insertTestBook(t, s, &Book{
		Title: "Inside", Author: "A",
		Locations: []Location{{Lat: 15, Lng: 25}},
	})
	insertTestBook(t, s, &Book{
		Title: "Outside", Author: "B",
		Locations: []Location{{Lat: 50, Lng: 60}},
	})

	books, err := s.BooksInBBox(context.Background(), geo.RectFromDegrees(10, 20, 30, 40))
	if err != nil {
		t.Fatalf("BooksInBBox: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	if books[0].ID != inside.ID {
		t.Errorf("expected book %q, got %q", inside.ID, books[0].ID)
	}
}

func TestBooksInBBoxAntimeridian(t *testing.T) {
	s := newTestStore(t)

	east := insertTestBook(t, s, &Book{
		Title: "East", Author: "A",
		Locations: []Location{{Lat: 0, Lng: 175}},
	})
	west := insertTestBook(t, s, &Book{
		Title: "West", Author: "B",
		Locations: []Location{{Lat: 0, Lng: -175}},
	})
	insertTestBook(t, s, &Book{
		Title: "Elsewhere", Author: "C",
		Locations: []Location{{Lat: 0, Lng: 0}},
	})

	books, err := s.BooksInBBox(context.Background(), geo.RectFromDegrees(-10, 170, 10, -170))
	if err != nil {
		t.Fatalf("BooksInBBox: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books across the antimeridian, got %d", len(books))
	}
	found := map[string]bool{}
	for _, b := range books {
		found[b.ID] = true
	}
	if !found[east.ID] || !found[west.ID] {
		t.Errorf("expected east and west books, got %+v", books)
	}
}

func TestBooksInBBoxDeduplicatesMultiLocationBook(t *testing.T) {
	s := newTestStore(t)

	insertTestBook(t, s, &Book{
		Title: "Twice", Author: "A",
		Locations: []Location{{Lat: 15, Lng: 25}, {Lat: 16, Lng: 26}},
	})

	books, err := s.BooksInBBox(context.Background(), geo.RectFromDegrees(10, 20, 30, 40))
	if err != nil {
		t.Fatalf("BooksInBBox: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book despite 2 matching locations, got %d", len(books))
	}
	if len(books[0].Locations) != 2 {
		t.Errorf("expected both locations attached, got %d", len(books[0].Locations))
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	insertTestBook(t, s, &Book{Title: "Dune", Author: "Frank Herbert", Tags: []string{"desert"}})
	insertTestBook(t, s, &Book{Title: "Emma", Author: "Jane Austen", Category: "Romance"})

	cases := []struct {
		query string
		want  int
	}{
		{"dune", 1},      // title, case-insensitive
		{"austen", 1},    // author
		{"desert", 1},    // tag
		{"romance", 1},   // category
		{"nonexistent", 0},
	}
	for _, tc := range cases {
		books, err := s.Search(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		if len(books) != tc.want {
			t.Errorf("Search(%q): expected %d books, got %d", tc.query, tc.want, len(books))
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newTestStore(t)
	insertTestBook(t, s, &Book{Title: "Dune", Author: "Frank Herbert"})

	books, err := s.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no results for blank query, got %d", len(books))
	}
}
