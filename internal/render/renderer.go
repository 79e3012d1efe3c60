package render

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// A4 at 150 DPI.
const (
	pageWidth  = 1240
	pageHeight = 1754

	marginX      = 110.0
	marginTop    = 120.0
	marginBottom = 130.0

	titleFontSize = 44
	bodyFontSize  = 26
	lineSpacing   = 1.5
)

// Renderer turns worksheet text into printable PNG pages. Without a
// configured font it falls back to the drawing library's built-in
// bitmap face, which keeps local development and tests free of font
// file dependencies.
type Renderer struct {
	titleFace font.Face
	bodyFace  font.Face
}

func NewRenderer() *Renderer {
	r := &Renderer{}

	fontPath := os.Getenv("WORKSHEET_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return r
	}

	titleFace, bodyFace, err := loadFaces(fontPath)
	if err != nil {
		log.Printf("WARN: could not load worksheet font %s: %v, using built-in face", fontPath, err)
		return r
	}
	r.titleFace = titleFace
	r.bodyFace = bodyFace
	return r
}

func loadFaces(fontPath string) (font.Face, font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse TTF: %w", err)
	}
	titleFace := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    titleFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	bodyFace := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    bodyFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return titleFace, bodyFace, nil
}

// RenderDocument lays out a title and body as one or more A4 PNG pages
// and returns the encoded pages in order.
func (r *Renderer) RenderDocument(title, body string) ([][]byte, error) {
	measure := gg.NewContext(1, 1)
	if r.bodyFace != nil {
		measure.SetFontFace(r.bodyFace)
	}
	lineHeight := measure.FontHeight() * lineSpacing
	textWidth := float64(pageWidth) - 2*marginX

	var lines []string
	for _, paragraph := range strings.Split(body, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, measure.WordWrap(paragraph, textWidth)...)
	}

	// The title and its underline take space on the first page.
	const titleLines = 3

	linesPerPage := int((float64(pageHeight) - marginTop - marginBottom) / lineHeight)
	if linesPerPage <= titleLines {
		return nil, fmt.Errorf("font too large for page layout: %d lines per page", linesPerPage)
	}

	var pages [][]byte
	pageNum := 0
	for start := 0; start == 0 || start < len(lines); {
		pageNum++
		capacity := linesPerPage
		if pageNum == 1 {
			capacity -= titleLines
		}
		end := start + capacity
		if end > len(lines) {
			end = len(lines)
		}

		png, err := r.renderPage(title, lines[start:end], pageNum)
		if err != nil {
			return nil, err
		}
		pages = append(pages, png)
		start = end

		if start >= len(lines) {
			break
		}
	}

	return pages, nil
}

func (r *Renderer) renderPage(title string, lines []string, pageNum int) ([]byte, error) {
	dc := gg.NewContext(pageWidth, pageHeight)

	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)

	y := marginTop

	if pageNum == 1 {
		if r.titleFace != nil {
			dc.SetFontFace(r.titleFace)
		}
		dc.DrawString(title, marginX, y)
		_, th := dc.MeasureString(title)

		y += th * 0.6
		dc.SetLineWidth(2)
		dc.DrawLine(marginX, y, float64(pageWidth)-marginX, y)
		dc.Stroke()
		y += th * 1.4
	}

	if r.bodyFace != nil {
		dc.SetFontFace(r.bodyFace)
	}
	lineHeight := dc.FontHeight() * lineSpacing

	for _, line := range lines {
		if line != "" {
			dc.DrawString(line, marginX, y)
		}
		y += lineHeight
	}

	footer := fmt.Sprintf("Page %d", pageNum)
	fw, _ := dc.MeasureString(footer)
	dc.DrawString(footer, (float64(pageWidth)-fw)/2, float64(pageHeight)-marginBottom/2)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode PNG page %d: %w", pageNum, err)
	}
	return buf.Bytes(), nil
}
