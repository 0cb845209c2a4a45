package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Subject is a user-defined collection of notes.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Note is one uploaded file belonging to a subject. StorageURL and StorageKey
// are nil when the object-storage upload failed; the note stays searchable
// because retrieval depends only on the persisted chunks.
type Note struct {
	ID         string    `db:"id" json:"id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	Filename   string    `db:"filename" json:"filename"`
	StorageURL *string   `db:"storage_url" json:"storage_url"`
	StorageKey *string   `db:"storage_key" json:"storage_key"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Page is the transient unit produced by text extraction. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ChunkMetadata locates a chunk inside its source file. ChunkIndex is the
// zero-based position within the whole note, counted across pages.
type ChunkMetadata struct {
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChunkInput is what the chunker emits, before a note ID is assigned.
type ChunkInput struct {
	Content  string
	Metadata ChunkMetadata
}

// Chunk is the persisted unit of storage and retrieval.
type Chunk struct {
	ID        string        `db:"id" json:"id"`
	SubjectID string        `db:"subject_id" json:"subject_id"`
	NoteID    string        `db:"note_id" json:"note_id"`
	Content   string        `db:"content" json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// RetrievedChunk is the shape consumed by the answer-generation collaborator.
type RetrievedChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}
