package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/geo"
	"github.com/bookmapapp/bookmap/internal/uploads"
)

const maxUploadBytes = 50 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleBooksInBBox returns books with a location inside the given
// viewport rectangle. min_lng > max_lng means the rect crosses the
// antimeridian.
func (s *Server) handleBooksInBBox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vals := make([]float64, 4)
	for i, key := range []string{"min_lat", "min_lng", "max_lat", "max_lng"} {
		f, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid BBOX")
			return
		}
		vals[i] = f
	}

	rect := geo.RectFromDegrees(vals[0], vals[1], vals[2], vals[3])
	if rect.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Invalid BBOX")
		return
	}

	books, err := s.store.BooksInBBox(r.Context(), rect)
	if err != nil {
		log.Printf("server: bbox query: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(books),
		"books": books,
	})
}

// handleSearch performs a free-text search across the catalog.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	books, err := s.store.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("server: search query: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"books": books})
}

func validateCreate(req *catalog.CreateBookRequest) string {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return "title is required"
	case strings.TrimSpace(req.Author) == "":
		return "author is required"
	case len(req.Locations) == 0:
		return "locations is required"
	}
	return ""
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request, req *catalog.CreateBookRequest, pdfName string) {
	book := req.Book()
	book.PDFFile = pdfName
	if err := s.store.InsertBook(r.Context(), book); err != nil {
		log.Printf("server: inserting book: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save book")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "success",
		"id":     book.ID,
	})
}

// handleAddBook creates a book from a plain JSON payload.
func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if msg := validateCreate(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.createBook(w, r, &req, "")
}

// handleAddBookWithPDF creates a book from a multipart form. The "data"
// field carries the JSON payload and "pdf_file" an optional document.
func (s *Server) handleAddBookWithPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var req catalog.CreateBookRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if msg := validateCreate(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var pdfName string
	file, header, err := r.FormFile("pdf_file")
	switch {
	case err == nil:
		defer file.Close()
		pdfName, err = s.uploads.Save(file, header.Filename)
		if errors.Is(err, uploads.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, "Only PDF allowed")
			return
		}
		if err != nil {
			log.Printf("server: saving upload: %v", err)
			writeError(w, http.StatusInternalServerError, "could not save document")
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// Book without a document is fine.
	default:
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	s.createBook(w, r, &req, pdfName)
}

// handleServePDF streams a stored document.
func (s *Server) handleServePDF(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := s.uploads.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid document name")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("server: streaming %s: %v", name, err)
	}
}

// handleReadBook returns the reader bootstrap payload for a book: its
// metadata plus the URL its document can be fetched from. Cover URLs
// that are already absolute pass through unchanged.
func (s *Server) handleReadBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookID")
	book, err := s.store.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("server: loading book %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	pdfURL := ""
	readerURL := ""
	if book.HasDocument() {
		if strings.HasPrefix(book.PDFFile, "http://") || strings.HasPrefix(book.PDFFile, "https://") {
			pdfURL = book.PDFFile
		} else {
			pdfURL = "/pdf/" + book.PDFFile
		}
		readerURL = "/ws/reader/" + book.ID
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"book":       book,
		"pdf_url":    pdfURL,
		"reader_url": readerURL,
	})
}
