package ingestion_engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askmynotes/askmynotes/internal/core/apperr"
	"github.com/askmynotes/askmynotes/internal/models"
)

// fakeDB is an in-memory DbClient with per-call error injection.
type fakeDB struct {
	subjects map[string]*models.Subject
	notes    []models.Note
	chunks   []models.Chunk

	insertChunksErr error
	createNoteErr   error
	orphanNoteIDs   []string
	emptyNoteIDs    []string
	scanErr         error

	deletedChunkNotes []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{subjects: map[string]*models.Subject{}}
}

func (f *fakeDB) CreateUser(context.Context, *models.User) error { return nil }
func (f *fakeDB) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (f *fakeDB) CreateSubject(_ context.Context, s *models.Subject) error {
	f.subjects[s.ID] = s
	return nil
}

func (f *fakeDB) GetSubject(_ context.Context, id, userID string) (*models.Subject, error) {
	s, ok := f.subjects[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return s, nil
}

func (f *fakeDB) ListSubjectsByUser(context.Context, string) ([]models.Subject, error) {
	return nil, nil
}
func (f *fakeDB) DeleteSubject(context.Context, string, string) error { return nil }

func (f *fakeDB) CreateNote(_ context.Context, n *models.Note) error {
	if f.createNoteErr != nil {
		return f.createNoteErr
	}
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakeDB) GetNote(context.Context, string, string) (*models.Note, error) { return nil, nil }
func (f *fakeDB) ListNotesBySubject(context.Context, string) ([]models.Note, error) {
	return f.notes, nil
}
func (f *fakeDB) ListNotesWithStorageKey(context.Context, string) ([]models.Note, error) {
	return nil, nil
}
func (f *fakeDB) DeleteNote(context.Context, string, string) error { return nil }

func (f *fakeDB) InsertChunks(_ context.Context, chunks []models.Chunk) (int, error) {
	if f.insertChunksErr != nil {
		return 0, f.insertChunksErr
	}
	f.chunks = append(f.chunks, chunks...)
	return len(chunks), nil
}

func (f *fakeDB) SearchChunks(context.Context, string, string, int) ([]models.RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeDB) DeleteChunksByNote(_ context.Context, _, noteID string) error {
	f.deletedChunkNotes = append(f.deletedChunkNotes, noteID)
	return nil
}

func (f *fakeDB) DeleteChunksBySubject(context.Context, string) error { return nil }

func (f *fakeDB) FindOrphanChunkNoteIDs(context.Context, string) ([]string, error) {
	return f.orphanNoteIDs, f.scanErr
}

func (f *fakeDB) FindNotesWithoutChunks(context.Context, string) ([]string, error) {
	return f.emptyNoteIDs, f.scanErr
}

func (f *fakeDB) Close() error { return nil }

// fakeStorage records uploads and can be forced to fail.
type fakeStorage struct {
	uploadErr error
	uploads   []string
	deletes   []string
}

func (f *fakeStorage) UploadFile(_ context.Context, _, key string, _ []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "https://bucket.s3.us-east-2.amazonaws.com/" + key, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, _, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func newTestIngestor(dbc *fakeDB, st *fakeStorage) *NoteIngestor {
	return NewNoteIngestor(dbc, st, NewFileExtractor(), "test-bucket", &IngestConfig{ChunkSize: 10, ChunkOverlap: 2})
}

func seedSubject(dbc *fakeDB) {
	dbc.subjects["subj-1"] = &models.Subject{ID: "subj-1", UserID: "user-1", Name: "physics"}
}

func TestIngestPlainText(t *testing.T) {
	dbc := newFakeDB()
	st := &fakeStorage{}
	seedSubject(dbc)

	result, err := newTestIngestor(dbc, st).Ingest(context.Background(), "subj-1", "user-1", []byte("AAAA BBBB CCCC DDDD"), "lecture.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, result.NoteID)
	assert.Equal(t, 3, result.ChunkCount)

	require.Len(t, dbc.chunks, 3)
	for i, ch := range dbc.chunks {
		assert.Equal(t, result.NoteID, ch.NoteID)
		assert.Equal(t, "subj-1", ch.SubjectID)
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.False(t, ch.CreatedAt.IsZero(), "recency ordering needs a real timestamp")
	}

	require.Len(t, dbc.notes, 1)
	note := dbc.notes[0]
	assert.Equal(t, result.NoteID, note.ID)
	assert.Equal(t, "lecture.txt", note.Filename)
	assert.False(t, note.CreatedAt.IsZero())
	require.NotNil(t, note.StorageURL)
	require.NotNil(t, note.StorageKey)
	assert.Equal(t, []string{*note.StorageKey}, st.uploads)
}

func TestIngestSubjectNotFound(t *testing.T) {
	dbc := newFakeDB()
	seedSubject(dbc)

	t.Run("unknown subject", func(t *testing.T) {
		_, err := newTestIngestor(dbc, &fakeStorage{}).Ingest(context.Background(), "nope", "user-1", []byte("x"), "a.txt")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("someone else's subject", func(t *testing.T) {
		_, err := newTestIngestor(dbc, &fakeStorage{}).Ingest(context.Background(), "subj-1", "intruder", []byte("x"), "a.txt")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestIngestUnsupportedExtension(t *testing.T) {
	dbc := newFakeDB()
	seedSubject(dbc)

	_, err := newTestIngestor(dbc, &fakeStorage{}).Ingest(context.Background(), "subj-1", "user-1", []byte("x"), "slides.pptx")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
	assert.Empty(t, dbc.chunks)
	assert.Empty(t, dbc.notes)
}

func TestIngestEmptyDocument(t *testing.T) {
	dbc := newFakeDB()
	st := &fakeStorage{}
	seedSubject(dbc)

	_, err := newTestIngestor(dbc, st).Ingest(context.Background(), "subj-1", "user-1", nil, "empty.txt")
	assert.ErrorIs(t, err, apperr.ErrEmptyDocument)
	assert.Empty(t, dbc.chunks, "nothing may be persisted")
	assert.Empty(t, dbc.notes)
	assert.Empty(t, st.uploads, "nothing may be uploaded")
}

func TestIngestStorageOutageIsNonFatal(t *testing.T) {
	dbc := newFakeDB()
	st := &fakeStorage{uploadErr: errors.New("s3 unreachable")}
	seedSubject(dbc)

	result, err := newTestIngestor(dbc, st).Ingest(context.Background(), "subj-1", "user-1", []byte("AAAA BBBB CCCC DDDD"), "lecture.txt")
	require.NoError(t, err, "losing the backup copy must not block ingestion")
	assert.Equal(t, 3, result.ChunkCount)
	assert.Len(t, dbc.chunks, 3)

	require.Len(t, dbc.notes, 1)
	assert.Nil(t, dbc.notes[0].StorageURL)
	assert.Nil(t, dbc.notes[0].StorageKey)
}

func TestIngestChunkPersistFailureIsFatal(t *testing.T) {
	dbc := newFakeDB()
	dbc.insertChunksErr = errors.New("db down")
	seedSubject(dbc)

	_, err := newTestIngestor(dbc, &fakeStorage{}).Ingest(context.Background(), "subj-1", "user-1", []byte("some text"), "a.txt")
	assert.ErrorIs(t, err, apperr.ErrIngestionFailed)
	assert.Empty(t, dbc.notes, "no note reference without chunks")
}

func TestIngestNotePersistFailure(t *testing.T) {
	dbc := newFakeDB()
	dbc.createNoteErr = errors.New("db down")
	seedSubject(dbc)

	_, err := newTestIngestor(dbc, &fakeStorage{}).Ingest(context.Background(), "subj-1", "user-1", []byte("some text"), "a.txt")
	assert.ErrorIs(t, err, apperr.ErrIngestionFailed)
	assert.NotEmpty(t, dbc.chunks, "chunks stay committed; reconcile finds them")
}
