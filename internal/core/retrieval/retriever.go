// Package retrieval is the named seam between the chunk store and the
// answer-generation collaborator: it returns exactly the ordered chunk shape
// the chat layer consumes, and nothing else. No re-ranking, deduplication, or
// context budgeting happens here; callers bound total content length
// themselves if they need to.
package retrieval

import (
	"context"
	"fmt"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	"github.com/askmynotes/askmynotes/internal/models"
)

const DefaultTopK = 5

// ChunkSearcher is the slice of the chunk store this package needs.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, subjectID, query string, topK int) ([]models.RetrievedChunk, error)
}

type Retriever struct {
	store ChunkSearcher
	topK  int
}

func NewRetriever(store ChunkSearcher, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{store: store, topK: topK}
}

// Retrieve returns the topK chunks most relevant to question within the
// subject. The store already falls back to recency when nothing matches
// lexically, so an empty result means the subject has no chunks at all.
func (r *Retriever) Retrieve(ctx context.Context, subjectID, question string, topK int) ([]models.RetrievedChunk, error) {
	if topK <= 0 {
		topK = r.topK
	}
	chunks, err := r.store.SearchChunks(ctx, subjectID, question, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSearchFailed, err)
	}
	return chunks, nil
}
