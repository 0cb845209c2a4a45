package ingestion_engine

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	"github.com/askmynotes/askmynotes/internal/models"
)

// TextExtractor converts raw file bytes into an ordered sequence of pages.
type TextExtractor interface {
	Extract(data []byte, filename string) ([]models.Page, error)
}

// placeholder page text for documents where every page came back blank.
const noTextPlaceholder = "No text content found in PDF."

var _ TextExtractor = (*FileExtractor)(nil)

// FileExtractor dispatches on the filename extension: plain text passes
// through verbatim, PDFs are read page by page.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// SupportedExtension reports whether filename names a file type the extractor
// can handle. Handlers check this up front so rejects share one error shape.
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

func (e *FileExtractor) Extract(data []byte, filename string) ([]models.Page, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return []models.Page{{Number: 1, Text: string(data)}}, nil
	case ".pdf":
		return extractPDF(data)
	default:
		return nil, apperr.ErrUnsupportedFormat
	}
}

// extractPDF returns one page per physical page that still has text after
// whitespace normalization. It never returns an empty sequence: a PDF whose
// pages are all blank yields a single placeholder page.
func extractPDF(data []byte) (pages []models.Page, err error) {
	// The pdf library panics on some malformed inputs; fold those into the
	// same wrapped error as ordinary parse failures.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = apperr.ExtractionFailed(fmt.Sprintf("malformed PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.ExtractionFailed(err.Error())
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			return nil, apperr.ExtractionFailed(err.Error())
		}
		text := normalizeWhitespace(raw)
		if text == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		pages = []models.Page{{Number: 1, Text: noTextPlaceholder}}
	}
	return pages, nil
}

// normalizeWhitespace collapses runs of whitespace to single spaces and trims
// the edges.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
