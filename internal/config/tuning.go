package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the pipeline knobs that operators may want to change without
// recompiling. All fields have working defaults; the YAML file is optional.
type Tuning struct {
	ChunkSize      int   `yaml:"chunk_size"`
	ChunkOverlap   int   `yaml:"chunk_overlap"`
	TopK           int   `yaml:"top_k"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

const (
	defaultChunkSize      = 500
	defaultChunkOverlap   = 50
	defaultTopK           = 5
	defaultMaxUploadBytes = 10 << 20 // 10 MiB
)

// LoadTuning reads the tuning file at path. A missing file yields defaults.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultTuning(), nil
		}
		return nil, err
	}
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	applyTuningDefaults(&t)
	if t.ChunkOverlap >= t.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", t.ChunkOverlap, t.ChunkSize)
	}
	return &t, nil
}

func defaultTuning() *Tuning {
	return &Tuning{
		ChunkSize:      defaultChunkSize,
		ChunkOverlap:   defaultChunkOverlap,
		TopK:           defaultTopK,
		MaxUploadBytes: defaultMaxUploadBytes,
	}
}

func applyTuningDefaults(t *Tuning) {
	if t.ChunkSize <= 0 {
		t.ChunkSize = defaultChunkSize
	}
	if t.ChunkOverlap < 0 {
		t.ChunkOverlap = defaultChunkOverlap
	}
	if t.TopK <= 0 {
		t.TopK = defaultTopK
	}
	if t.MaxUploadBytes <= 0 {
		t.MaxUploadBytes = defaultMaxUploadBytes
	}
}
