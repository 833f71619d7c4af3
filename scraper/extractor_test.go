package scraper

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"gta_pricer/models"
)

func loadDocument(t *testing.T, name string) *goquery.Document {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to parse fixture %s: %v", name, err)
	}
	return doc
}

func TestExtractListings_Basic(t *testing.T) {
	doc := loadDocument(t, "search_page.html")

	listings := ExtractListings(doc, models.TypeCondo)
	// The third tile has no address and must be skipped.
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.Address != "123 Main St" {
		t.Fatalf("expected address 123 Main St, got %q", first.Address)
	}
	if first.BedsText != "3+1 beds" {
		t.Fatalf("expected beds text 3+1 beds, got %q", first.BedsText)
	}
	if first.BathsText != "2 baths" {
		t.Fatalf("expected baths text 2 baths, got %q", first.BathsText)
	}
	if first.PriceText != "$650,000" {
		t.Fatalf("expected price text $650,000, got %q", first.PriceText)
	}
	if first.Type != models.TypeCondo {
		t.Fatalf("expected type condo, got %s", first.Type)
	}

	second := listings[1]
	if second.Address != "88 Harbour St Unit 1204" {
		t.Fatalf("unexpected second address %q", second.Address)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct listing IDs")
	}
}

func TestExtractListings_EmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte("<html><body></body></html>")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	listings := ExtractListings(doc, models.TypeDetached)
	if len(listings) != 0 {
		t.Fatalf("expected 0 listings, got %d", len(listings))
	}
}
