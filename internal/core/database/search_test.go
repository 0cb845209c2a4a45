package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askmynotes/askmynotes/internal/models"
)

// fakeQueryRunner answers the ranked and recency queries independently and
// records what it was asked.
type fakeQueryRunner struct {
	ranked    []models.RetrievedChunk
	rankedErr error
	recent    []models.RetrievedChunk
	recentErr error

	calls []string
	args  [][]any
}

func (f *fakeQueryRunner) run(_ context.Context, q string, args ...any) ([]models.RetrievedChunk, error) {
	f.args = append(f.args, args)
	if strings.Contains(q, "ts_rank") {
		f.calls = append(f.calls, "ranked")
		return f.ranked, f.rankedErr
	}
	f.calls = append(f.calls, "recent")
	return f.recent, f.recentErr
}

func TestSearchWithFallbackRankedHit(t *testing.T) {
	want := []models.RetrievedChunk{{Content: "entropy always increases"}}
	f := &fakeQueryRunner{ranked: want}

	got, err := searchWithFallback(context.Background(), f.run, "subj-1", "entropy", 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"ranked"}, f.calls, "a lexical hit must not trigger the fallback")
	assert.Equal(t, []any{"subj-1", "entropy", 5}, f.args[0])
}

func TestSearchWithFallbackNoLexicalMatch(t *testing.T) {
	recent := []models.RetrievedChunk{{Content: "newest"}, {Content: "older"}}
	f := &fakeQueryRunner{recent: recent}

	got, err := searchWithFallback(context.Background(), f.run, "subj-1", "zzznomatch", 5)
	require.NoError(t, err)
	assert.Equal(t, recent, got, "an unmatched query still gets the most recent chunks")
	assert.Equal(t, []string{"ranked", "recent"}, f.calls)
	assert.Equal(t, []any{"subj-1", 5}, f.args[1], "the recency query takes no search term")
}

func TestSearchWithFallbackEmptySubject(t *testing.T) {
	f := &fakeQueryRunner{}

	got, err := searchWithFallback(context.Background(), f.run, "subj-1", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"ranked", "recent"}, f.calls)
}

func TestSearchWithFallbackErrors(t *testing.T) {
	t.Run("ranked query error", func(t *testing.T) {
		f := &fakeQueryRunner{rankedErr: errors.New("db down")}

		_, err := searchWithFallback(context.Background(), f.run, "subj-1", "q", 5)
		assert.Error(t, err)
		assert.Equal(t, []string{"ranked"}, f.calls, "no fallback on a failed query")
	})

	t.Run("recency query error", func(t *testing.T) {
		f := &fakeQueryRunner{recentErr: errors.New("db down")}

		_, err := searchWithFallback(context.Background(), f.run, "subj-1", "q", 5)
		assert.Error(t, err)
	})
}
