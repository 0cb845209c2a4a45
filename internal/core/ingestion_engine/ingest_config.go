package ingestion_engine

// IngestConfig tunes the chunking step of the pipeline.
//
// ChunkSize:    window length in runes (e.g., 500).
// ChunkOverlap: runes shared between consecutive windows for context bleed
//               across a chunk boundary (e.g., 50). Must stay below ChunkSize.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c *IngestConfig) withDefaults() IngestConfig {
	out := IngestConfig{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
	if c == nil {
		return out
	}
	if c.ChunkSize > 0 {
		out.ChunkSize = c.ChunkSize
	}
	if c.ChunkOverlap > 0 {
		out.ChunkOverlap = c.ChunkOverlap
	}
	return out
}
