package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/askmynotes/askmynotes/internal/config"
	"github.com/askmynotes/askmynotes/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: sqlDB}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Subjects

func (c *DatabaseClient) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject == nil {
		return errors.New("nil subject")
	}
	const q = `
		INSERT INTO subjects (id, user_id, name, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		subject.ID, subject.UserID, subject.Name, subject.CreatedAt)
	return err
}

// GetSubject returns nil without error when the subject is absent or owned by
// a different user, so callers can't distinguish the two cases.
func (c *DatabaseClient) GetSubject(ctx context.Context, id, userID string) (*models.Subject, error) {
	const q = `
		SELECT id, user_id, name, created_at
		FROM subjects
		WHERE id = $1 AND user_id = $2
	`
	var s models.Subject
	err := c.db.QueryRowContext(ctx, q, id, userID).Scan(
		&s.ID, &s.UserID, &s.Name, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) ListSubjectsByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	const q = `
		SELECT id, user_id, name, created_at
		FROM subjects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteSubject(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM subjects WHERE id = $1 AND user_id = $2`
	_, err := c.db.ExecContext(ctx, q, id, userID)
	return err
}

// Notes

func (c *DatabaseClient) CreateNote(ctx context.Context, note *models.Note) error {
	if note == nil {
		return errors.New("nil note")
	}
	const q = `
		INSERT INTO notes (id, subject_id, filename, storage_url, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		note.ID, note.SubjectID, note.Filename, note.StorageURL, note.StorageKey, note.CreatedAt)
	return err
}

func (c *DatabaseClient) GetNote(ctx context.Context, subjectID, noteID string) (*models.Note, error) {
	const q = `
		SELECT id, subject_id, filename, storage_url, storage_key, created_at
		FROM notes
		WHERE id = $1 AND subject_id = $2
	`
	var n models.Note
	err := c.db.QueryRowContext(ctx, q, noteID, subjectID).Scan(
		&n.ID, &n.SubjectID, &n.Filename, &n.StorageURL, &n.StorageKey, &n.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *DatabaseClient) ListNotesBySubject(ctx context.Context, subjectID string) ([]models.Note, error) {
	const q = `
		SELECT id, subject_id, filename, storage_url, storage_key, created_at
		FROM notes
		WHERE subject_id = $1
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.Filename, &n.StorageURL, &n.StorageKey, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListNotesWithStorageKey(ctx context.Context, subjectID string) ([]models.Note, error) {
	const q = `
		SELECT id, subject_id, filename, storage_url, storage_key, created_at
		FROM notes
		WHERE subject_id = $1 AND storage_key IS NOT NULL
	`
	rows, err := c.db.QueryContext(ctx, q, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.Filename, &n.StorageURL, &n.StorageKey, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNote is idempotent: deleting an absent note is a no-op.
func (c *DatabaseClient) DeleteNote(ctx context.Context, subjectID, noteID string) error {
	const q = `DELETE FROM notes WHERE id = $1 AND subject_id = $2`
	_, err := c.db.ExecContext(ctx, q, noteID, subjectID)
	return err
}

// Chunks

// InsertChunks persists all chunks in a single transaction and returns the
// number committed. On failure the transaction rolls back and the count is 0;
// the store never silently drops part of a batch.
func (c *DatabaseClient) InsertChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO chunks
			(id, subject_id, note_id, content, filename, page, chunk_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.SubjectID, ch.NoteID, ch.Content,
			ch.Metadata.Filename, ch.Metadata.Page, ch.Metadata.ChunkIndex, ch.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

const rankedChunkQuery = `
	SELECT content, filename, page, chunk_index
	FROM chunks
	WHERE subject_id = $1
	  AND content_tsv @@ plainto_tsquery('english', $2)
	ORDER BY ts_rank(content_tsv, plainto_tsquery('english', $2)) DESC
	LIMIT $3
`

const recentChunkQuery = `
	SELECT content, filename, page, chunk_index
	FROM chunks
	WHERE subject_id = $1
	ORDER BY created_at DESC
	LIMIT $2
`

// SearchChunks ranks the subject's chunks against query with Postgres
// full-text search. When nothing matches lexically it falls back to the topK
// most recently created chunks so a question always gets some context.
func (c *DatabaseClient) SearchChunks(ctx context.Context, subjectID, query string, topK int) ([]models.RetrievedChunk, error) {
	return searchWithFallback(ctx, c.queryRetrieved, subjectID, query, topK)
}

type retrievedQueryFunc func(ctx context.Context, q string, args ...any) ([]models.RetrievedChunk, error)

// searchWithFallback runs the ranked query and, only when it matches nothing,
// the recency query. An empty result therefore means the subject has no
// chunks at all.
func searchWithFallback(ctx context.Context, run retrievedQueryFunc, subjectID, query string, topK int) ([]models.RetrievedChunk, error) {
	out, err := run(ctx, rankedChunkQuery, subjectID, query, topK)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}
	return run(ctx, recentChunkQuery, subjectID, topK)
}

func (c *DatabaseClient) queryRetrieved(ctx context.Context, q string, args ...any) ([]models.RetrievedChunk, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RetrievedChunk
	for rows.Next() {
		var rc models.RetrievedChunk
		if err := rows.Scan(&rc.Content, &rc.Metadata.Filename, &rc.Metadata.Page, &rc.Metadata.ChunkIndex); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// DeleteChunksByNote is idempotent; removing chunks for an absent note is a no-op.
func (c *DatabaseClient) DeleteChunksByNote(ctx context.Context, subjectID, noteID string) error {
	const q = `DELETE FROM chunks WHERE subject_id = $1 AND note_id = $2`
	_, err := c.db.ExecContext(ctx, q, subjectID, noteID)
	return err
}

func (c *DatabaseClient) DeleteChunksBySubject(ctx context.Context, subjectID string) error {
	const q = `DELETE FROM chunks WHERE subject_id = $1`
	_, err := c.db.ExecContext(ctx, q, subjectID)
	return err
}

// Reconciliation scans. Chunks carry no foreign key to notes, so a failure
// between the two deletion statements can strand rows on either side.

func (c *DatabaseClient) FindOrphanChunkNoteIDs(ctx context.Context, subjectID string) ([]string, error) {
	const q = `
		SELECT DISTINCT ch.note_id
		FROM chunks ch
		LEFT JOIN notes n ON n.id = ch.note_id AND n.subject_id = ch.subject_id
		WHERE ch.subject_id = $1 AND n.id IS NULL
	`
	return c.queryIDs(ctx, q, subjectID)
}

func (c *DatabaseClient) FindNotesWithoutChunks(ctx context.Context, subjectID string) ([]string, error) {
	const q = `
		SELECT n.id
		FROM notes n
		LEFT JOIN chunks ch ON ch.note_id = n.id AND ch.subject_id = n.subject_id
		WHERE n.subject_id = $1 AND ch.id IS NULL
	`
	return c.queryIDs(ctx, q, subjectID)
}

func (c *DatabaseClient) queryIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
