package ingestion_engine

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	objectclient "github.com/askmynotes/askmynotes/internal/core/object-client"
	"github.com/askmynotes/askmynotes/internal/models"
)

// Ingestor turns an uploaded file into searchable chunks plus a note record.
type Ingestor interface {
	Ingest(ctx context.Context, subjectID, userID string, data []byte, filename string) (*IngestResult, error)
	Reconcile(ctx context.Context, subjectID string, purge bool) (*ReconcileReport, error)
}

// IngestResult reports what one ingestion run produced.
type IngestResult struct {
	NoteID     string `json:"note_id"`
	ChunkCount int    `json:"chunk_count"`
}

var _ Ingestor = (*NoteIngestor)(nil)

// NoteIngestor sequences extract → chunk → object-storage upload → chunk
// insert → note insert. Only the storage upload is best-effort; every other
// step aborts the run.
type NoteIngestor struct {
	db        db.DbClient
	obj       objectclient.ObjectClient
	extractor TextExtractor
	bucket    string
	cfg       IngestConfig
}

func NewNoteIngestor(dbClient db.DbClient, obj objectclient.ObjectClient, extractor TextExtractor, bucket string, cfg *IngestConfig) *NoteIngestor {
	return &NoteIngestor{
		db:        dbClient,
		obj:       obj,
		extractor: extractor,
		bucket:    bucket,
		cfg:       cfg.withDefaults(),
	}
}

func (i *NoteIngestor) Ingest(ctx context.Context, subjectID, userID string, data []byte, filename string) (*IngestResult, error) {
	subject, err := i.db.GetSubject(ctx, subjectID, userID)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: subject not found", apperr.ErrNotFound)
	}

	if !SupportedExtension(filename) {
		return nil, apperr.ErrUnsupportedFormat
	}

	pages, err := i.extractor.Extract(data, filename)
	if err != nil {
		return nil, err
	}

	chunkInputs, err := ChunkPages(pages, filename, i.cfg.ChunkSize, i.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunkInputs) == 0 {
		return nil, apperr.ErrEmptyDocument
	}

	noteID := uuid.NewString()

	// Best-effort: retrieval depends only on the persisted chunks, so losing
	// the backup copy must not block making the note searchable.
	upload := i.uploadOriginal(ctx, userID, subjectID, noteID, filename, data)
	if upload.Err != nil {
		log.Warn().Err(upload.Err).
			Str("subject_id", subjectID).
			Str("note_id", noteID).
			Msg("object storage upload failed, continuing without stored original")
	}

	now := time.Now()
	chunks := make([]models.Chunk, len(chunkInputs))
	for idx, in := range chunkInputs {
		chunks[idx] = models.Chunk{
			ID:        uuid.NewString(),
			SubjectID: subjectID,
			NoteID:    noteID,
			Content:   in.Content,
			Metadata:  in.Metadata,
			CreatedAt: now,
		}
	}

	count, err := i.db.InsertChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: persist chunks: %v", apperr.ErrIngestionFailed, err)
	}

	note := &models.Note{
		ID:        noteID,
		SubjectID: subjectID,
		Filename:  filepath.Base(filename),
		CreatedAt: now,
	}
	if upload.Err == nil {
		note.StorageURL = &upload.URL
		note.StorageKey = &upload.Key
	}
	if err := i.db.CreateNote(ctx, note); err != nil {
		// The chunks are already committed; the reconcile scan will find them.
		log.Error().Err(err).
			Str("subject_id", subjectID).
			Str("note_id", noteID).
			Int("chunks", count).
			Msg("note reference persist failed, chunks left orphaned")
		return nil, fmt.Errorf("%w: persist note reference: %v", apperr.ErrIngestionFailed, err)
	}

	log.Info().
		Str("subject_id", subjectID).
		Str("note_id", noteID).
		Int("chunks", count).
		Str("filename", note.Filename).
		Msg("note ingested")

	return &IngestResult{NoteID: noteID, ChunkCount: count}, nil
}

// uploadResult makes the best-effort policy visible at the call site instead
// of hiding the failure in a caught-and-ignored error.
type uploadResult struct {
	URL string
	Key string
	Err error
}

func (i *NoteIngestor) uploadOriginal(ctx context.Context, userID, subjectID, noteID, filename string, data []byte) uploadResult {
	key := path.Join("askmynotes", userID, subjectID, noteID)
	url, err := i.obj.UploadFile(ctx, i.bucket, key, data, contentTypeFor(filename))
	if err != nil {
		return uploadResult{Err: err}
	}
	return uploadResult{URL: url, Key: key}
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
