package db

import (
	"context"

	"github.com/askmynotes/askmynotes/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateSubject(ctx context.Context, subject *models.Subject) error
	GetSubject(ctx context.Context, id, userID string) (*models.Subject, error)
	ListSubjectsByUser(ctx context.Context, userID string) ([]models.Subject, error)
	DeleteSubject(ctx context.Context, id, userID string) error

	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, subjectID, noteID string) (*models.Note, error)
	ListNotesBySubject(ctx context.Context, subjectID string) ([]models.Note, error)
	ListNotesWithStorageKey(ctx context.Context, subjectID string) ([]models.Note, error)
	DeleteNote(ctx context.Context, subjectID, noteID string) error

	InsertChunks(ctx context.Context, chunks []models.Chunk) (int, error)
	SearchChunks(ctx context.Context, subjectID, query string, topK int) ([]models.RetrievedChunk, error)
	DeleteChunksByNote(ctx context.Context, subjectID, noteID string) error
	DeleteChunksBySubject(ctx context.Context, subjectID string) error

	FindOrphanChunkNoteIDs(ctx context.Context, subjectID string) ([]string, error)
	FindNotesWithoutChunks(ctx context.Context, subjectID string) ([]string, error)

	Close() error
}
