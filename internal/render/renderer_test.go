package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

func TestRenderDocument_SinglePage(t *testing.T) {
	r := NewRenderer()

	pages, err := r.RenderDocument("Grammar Worksheet - Amal", "PASSAGE:\nA short passage.\n\nQUESTIONS:\n1) A question?")
	if err != nil {
		t.Fatalf("RenderDocument returned error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	img, err := png.Decode(bytes.NewReader(pages[0]))
	if err != nil {
		t.Fatalf("page is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != pageWidth || bounds.Dy() != pageHeight {
		t.Errorf("page size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), pageWidth, pageHeight)
	}
}

func TestRenderDocument_Paginates(t *testing.T) {
	r := NewRenderer()

	long := strings.Repeat("A line of worksheet text that needs its own row on the page.\n", 200)
	pages, err := r.RenderDocument("Reading Worksheet", long)
	if err != nil {
		t.Fatalf("RenderDocument returned error: %v", err)
	}
	if len(pages) < 2 {
		t.Fatalf("expected multiple pages for long body, got %d", len(pages))
	}

	for i, page := range pages {
		if _, err := png.Decode(bytes.NewReader(page)); err != nil {
			t.Errorf("page %d is not a valid PNG: %v", i+1, err)
		}
	}
}

// A face so large that a page fits fewer lines than the title block
// must be rejected instead of looping without placing any text.
func TestRenderDocument_RejectsOversizedFont(t *testing.T) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse test font: %v", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: 400, DPI: 72})
	r := &Renderer{titleFace: face, bodyFace: face}

	_, err = r.RenderDocument("Grammar Worksheet", strings.Repeat("Some worksheet text.\n", 20))
	if err == nil {
		t.Fatal("expected layout error for oversized font")
	}
	if !strings.Contains(err.Error(), "font too large") {
		t.Errorf("error = %q, want a font layout error", err)
	}
}

func TestRenderDocument_EmptyBody(t *testing.T) {
	r := NewRenderer()

	pages, err := r.RenderDocument("Empty Worksheet", "")
	if err != nil {
		t.Fatalf("RenderDocument returned error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected the title page alone, got %d pages", len(pages))
	}
}
