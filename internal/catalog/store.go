package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookmapapp/bookmap/internal/db"
	"github.com/bookmapapp/bookmap/internal/geo"
)

// Row limits mirror the catalog service's original behavior.
const (
	maxBBoxResults   = 300
	maxSearchResults = 150
)

// Store manages persistence of books and their locations.
type Store struct {
	db *db.DB
}

// NewStore creates a new catalog store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// InsertBook stores a book and its locations. A missing ID is assigned.
func (s *Store) InsertBook(ctx context.Context, b *Book) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	tags, err := json.Marshal(b.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (id, title, author, year, category, description, tags, cover_url, pdf_file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.Year, b.Category, b.Description, string(tags), b.CoverURL, b.PDFFile, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}

	for i, loc := range b.Locations {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO locations (id, book_id, lat, lng, place_name, country, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), b.ID, loc.Lat, loc.Lng, loc.PlaceName, loc.Country, i,
		)
		if err != nil {
			return fmt.Errorf("inserting location %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing book: %w", err)
	}
	return nil
}

// GetBook retrieves a book by ID, or nil if it does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*Book, error) {
	books, err := s.loadBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}
	return &books[0], nil
}

// BooksInBBox returns books with at least one location inside the rect.
// Rects crossing the antimeridian are handled by splitting into boxes.
func (s *Store) BooksInBBox(ctx context.Context, r geo.Rect) ([]Book, error) {
	boxes := r.Boxes()
	if len(boxes) == 0 {
		return nil, nil
	}

	var conds []string
	var args []interface{}
	for _, b := range boxes {
		conds = append(conds, `(l.lat BETWEEN ? AND ? AND l.lng BETWEEN ? AND ?)`)
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}
	args = append(args, maxBBoxResults)

	query := `SELECT ` + bookColumns + ` FROM books
		 WHERE id IN (SELECT DISTINCT l.book_id FROM locations l WHERE ` +
		strings.Join(conds, " OR ") + `)
		 ORDER BY created_at DESC LIMIT ?`

	return s.loadBooks(ctx, query, args...)
}

// Search returns books whose title, author, tags, category, or description
// contain the query, case-insensitively.
func (s *Store) Search(ctx context.Context, q string) ([]Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	pattern := "%" + strings.ToLower(q) + "%"
	query := `SELECT ` + bookColumns + ` FROM books
		 WHERE lower(title) LIKE ? OR lower(author) LIKE ? OR lower(tags) LIKE ?
		    OR lower(category) LIKE ? OR lower(description) LIKE ?
		 ORDER BY created_at DESC LIMIT ?`

	return s.loadBooks(ctx, query, pattern, pattern, pattern, pattern, pattern, maxSearchResults)
}

const bookColumns = `id, title, author, year, category, description, tags, cover_url, pdf_file, created_at`

// loadBooks runs a book query and attaches the locations of every result.
func (s *Store) loadBooks(ctx context.Context, query string, args ...interface{}) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []Book
	index := map[string]int{}
	for rows.Next() {
		var b Book
		var tags string
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.Category,
			&b.Description, &tags, &b.CoverURL, &b.PDFFile, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
			b.Tags = nil
		}
		index[b.ID] = len(books)
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	if len(books) == 0 {
		return nil, nil
	}

	if err := s.attachLocations(ctx, books, index); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) attachLocations(ctx context.Context, books []Book, index map[string]int) error {
	placeholders := make([]string, len(books))
	args := make([]interface{}, len(books))
	for i, b := range books {
		placeholders[i] = "?"
		args[i] = b.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, lat, lng, place_name, country FROM locations
		 WHERE book_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY book_id, position`, args...)
	if err != nil {
		return fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID string
		var loc Location
		if err := rows.Scan(&bookID, &loc.Lat, &loc.Lng, &loc.PlaceName, &loc.Country); err != nil {
			return fmt.Errorf("scanning location: %w", err)
		}
		if i, ok := index[bookID]; ok {
			books[i].Locations = append(books[i].Locations, loc)
		}
	}
	return rows.Err()
}
