package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookmapapp/bookmap/internal/geo"
)

func TestClientBooksInBBox(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books-in-bbox" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"books": []Book{{ID: "1", Title: "Dune", Locations: []Location{{Lat: 10, Lng: 20}}}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	books, err := c.BooksInBBox(context.Background(), geo.RectFromDegrees(5, 15, 15, 25))
	if err != nil {
		t.Fatalf("BooksInBBox: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Fatalf("unexpected books: %+v", books)
	}
	for _, param := range []string{"min_lng=15", "min_lat=5", "max_lng=25", "max_lat=15"} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("expected %q in query %q", param, gotQuery)
		}
	}
}

func TestClientBooksInBBoxMergesAntimeridianHalves(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Same book returned from both halves; the client must deduplicate.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"books": []Book{{ID: "1", Title: "Pacific Atlas"}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	books, err := c.BooksInBBox(context.Background(), geo.RectFromDegrees(-10, 170, 10, -170))
	if err != nil {
		t.Fatalf("BooksInBBox: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests for an antimeridian rect, got %d", calls)
	}
	if len(books) != 1 {
		t.Errorf("expected deduplicated result, got %d books", len(books))
	}
}

func TestClientSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "dune" {
			t.Errorf("expected q=dune, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"books": []Book{{ID: "1", Title: "Dune"}},
		})
	}))
	defer ts.Close()

	books, err := NewClient(ts.URL).Search(context.Background(), "dune")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
}

func TestClientCreateBookMultipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		var req CreateBookRequest
		if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
			t.Fatalf("decoding data field: %v", err)
		}
		if req.Title != "Dune" {
			t.Errorf("expected title Dune, got %q", req.Title)
		}
		if _, hdr, err := r.FormFile("pdf_file"); err != nil {
			t.Errorf("expected pdf_file part: %v", err)
		} else if hdr.Filename != "dune.pdf" {
			t.Errorf("expected filename dune.pdf, got %q", hdr.Filename)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer ts.Close()

	req := CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Locations: []LocationInput{{
			Geo:       GeoPoint{Type: "Point", Coordinates: [2]float64{20, 10}},
			PlaceName: "Arrakeen",
		}},
	}
	err := NewClient(ts.URL).CreateBook(context.Background(), req, strings.NewReader("%PDF-1.4"), "dune.pdf")
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
}

func TestClientCreateBookServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"title is required"}`))
	}))
	defer ts.Close()

	err := NewClient(ts.URL).CreateBook(context.Background(), CreateBookRequest{}, nil, "")
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Errorf("expected server error message, got %v", err)
	}
}
