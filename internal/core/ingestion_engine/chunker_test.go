package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	"github.com/askmynotes/askmynotes/internal/models"
)

func TestChunkPagesWindows(t *testing.T) {
	pages := []models.Page{{Number: 1, Text: "AAAA BBBB CCCC DDDD"}}

	chunks, err := ChunkPages(pages, "sample.txt", 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// windows [0:10], [8:18], [16:19], trimmed
	assert.Equal(t, "AAAA BBBB", chunks[0].Content)
	assert.Equal(t, "B CCCC DDD", chunks[1].Content)
	assert.Equal(t, "DDD", chunks[2].Content)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.Equal(t, 1, ch.Metadata.Page)
		assert.Equal(t, "sample.txt", ch.Metadata.Filename)
	}
}

func TestChunkPagesCount(t *testing.T) {
	cases := []struct {
		length, size, overlap int
	}{
		{1, 10, 2},
		{5, 10, 2},
		{10, 10, 2},
		{11, 10, 2},
		{19, 10, 2},
		{100, 10, 2},
		{500, 500, 50},
		{501, 500, 50},
		{2000, 500, 50},
	}
	for _, tc := range cases {
		text := strings.Repeat("a", tc.length)
		chunks, err := ChunkPages([]models.Page{{Number: 1, Text: text}}, "f.txt", tc.size, tc.overlap)
		require.NoError(t, err)

		step := tc.size - tc.overlap
		want := (tc.length - tc.overlap + step - 1) / step
		if tc.length <= tc.size {
			want = 1
		}
		assert.Len(t, chunks, want, "length=%d size=%d overlap=%d", tc.length, tc.size, tc.overlap)
	}
}

func TestChunkPagesGlobalIndexAcrossPages(t *testing.T) {
	pages := []models.Page{
		{Number: 1, Text: strings.Repeat("x", 25)},
		{Number: 2, Text: "   "}, // contributes nothing, consumes no index
		{Number: 3, Text: strings.Repeat("y", 25)},
	}

	chunks, err := ChunkPages(pages, "multi.pdf", 10, 2)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex, "indices must be gapless and increasing")
	}
	assert.Equal(t, 1, chunks[0].Metadata.Page)
	assert.Equal(t, 3, chunks[len(chunks)-1].Metadata.Page)
}

func TestChunkPagesContainment(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog and keeps on running through the field"
	pages := []models.Page{{Number: 1, Text: text}}

	chunks, err := ChunkPages(pages, "fox.txt", 20, 5)
	require.NoError(t, err)

	for _, ch := range chunks {
		assert.Contains(t, text, ch.Content)
	}
}

func TestChunkPagesDegenerate(t *testing.T) {
	t.Run("empty page yields no chunks", func(t *testing.T) {
		chunks, err := ChunkPages([]models.Page{{Number: 1, Text: ""}}, "f.txt", 10, 2)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("whitespace page yields no chunks", func(t *testing.T) {
		chunks, err := ChunkPages([]models.Page{{Number: 1, Text: " \t\n "}}, "f.txt", 10, 2)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("short page yields its trimmed text", func(t *testing.T) {
		chunks, err := ChunkPages([]models.Page{{Number: 1, Text: "  hi  "}}, "f.txt", 10, 2)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hi", chunks[0].Content)
	})
}

func TestChunkPagesInvalidConfig(t *testing.T) {
	pages := []models.Page{{Number: 1, Text: "some text"}}

	for _, tc := range []struct{ size, overlap int }{
		{10, 10},
		{10, 15},
		{0, 0},
		{-1, 0},
		{10, -1},
	} {
		_, err := ChunkPages(pages, "f.txt", tc.size, tc.overlap)
		assert.ErrorIs(t, err, apperr.ErrInvalidChunkingConfig, "size=%d overlap=%d", tc.size, tc.overlap)
	}
}
