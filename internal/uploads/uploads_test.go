package uploads

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	name, err := s.Save(strings.NewReader("%PDF-1.4 content"), "My Book.pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(name, "My_Book.pdf") {
		t.Errorf("expected sanitized suffix, got %q", name)
	}

	f, err := s.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "%PDF-1.4 content" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveRejectsNonPDF(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = s.Save(strings.NewReader("x"), "malware.exe")
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, name := range []string{"../etc/passwd", "a/b.pdf", ""} {
		if _, err := s.Open(name); err == nil {
			t.Errorf("expected error opening %q", name)
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"My Book.pdf":        "My_Book.pdf",
		"../../evil.pdf":     "evil.pdf",
		"weird!!name??.pdf":  "weird_name_.pdf",
		"":                   "document.pdf",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
