package ingestion_engine

import (
	"strings"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	"github.com/askmynotes/askmynotes/internal/models"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// ChunkPages splits each page's text into fixed-size overlapping windows
// measured in runes. The chunk index is a single counter threaded across all
// pages of the call, so it is the chunk's position within the whole note.
func ChunkPages(pages []models.Page, filename string, chunkSize, chunkOverlap int) ([]models.ChunkInput, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, apperr.ErrInvalidChunkingConfig
	}

	var out []models.ChunkInput
	index := 0
	for _, page := range pages {
		for _, content := range splitText(page.Text, chunkSize, chunkOverlap) {
			out = append(out, models.ChunkInput{
				Content: content,
				Metadata: models.ChunkMetadata{
					Filename:   filename,
					Page:       page.Number,
					ChunkIndex: index,
				},
			})
			index++
		}
	}
	return out, nil
}

// splitText windows text into substrings of up to size runes, advancing by
// size-overlap each step. Windows that trim down to nothing are dropped and
// do not consume an index.
func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(runes) {
			break
		}
		start += size - overlap
	}
	return chunks
}
