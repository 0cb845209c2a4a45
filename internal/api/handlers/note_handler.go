package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/askmynotes/askmynotes/internal/config"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	"github.com/askmynotes/askmynotes/internal/core/ingestion_engine"
	objectclient "github.com/askmynotes/askmynotes/internal/core/object-client"
	"github.com/askmynotes/askmynotes/internal/models"
)

type NoteHandler struct {
	dbclient db.DbClient
	storage  objectclient.ObjectClient
	ingestor ingestion_engine.Ingestor
	cfg      *config.Config
}

func NewNoteHandler(dbclient db.DbClient, storage objectclient.ObjectClient, ing ingestion_engine.Ingestor, cfg *config.Config) *NoteHandler {
	return &NoteHandler{dbclient: dbclient, storage: storage, ingestor: ing, cfg: cfg}
}

// Upload handles POST /api/notes/{subjectID}/upload: a single multipart
// "file" field, PDF or TXT, capped before any extraction work happens.
func (h *NoteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	maxBytes := h.cfg.Tuning.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if !ingestion_engine.SupportedExtension(header.Filename) {
		writeMessage(w, http.StatusBadRequest, "only PDF and TXT files are allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), subjectID, userID, data, header.Filename)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "note uploaded and processed successfully",
		"note_id":        result.NoteID,
		"filename":       header.Filename,
		"chunks_created": result.ChunkCount,
	})
}

// List handles GET /api/notes/{subjectID}.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	subject, err := h.dbclient.GetSubject(r.Context(), subjectID, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if subject == nil {
		writeMessage(w, http.StatusNotFound, "subject not found")
		return
	}

	notes, err := h.dbclient.ListNotesBySubject(r.Context(), subjectID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// Delete handles DELETE /api/notes/{subjectID}/{noteID}. Stored original,
// chunks, and the note row are removed by independent calls: the storage
// delete is best-effort, and a failure between the two database deletes can
// strand chunks until the next reconcile.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subjectID := chi.URLParam(r, "subjectID")
	noteID := chi.URLParam(r, "noteID")

	subject, err := h.dbclient.GetSubject(r.Context(), subjectID, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if subject == nil {
		writeMessage(w, http.StatusNotFound, "subject not found")
		return
	}

	note, err := h.dbclient.GetNote(r.Context(), subjectID, noteID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if note == nil {
		writeMessage(w, http.StatusNotFound, "note not found")
		return
	}

	if note.StorageKey != nil {
		if err := h.storage.DeleteFile(r.Context(), h.cfg.BucketName, *note.StorageKey); err != nil {
			log.Warn().Err(err).Str("note_id", noteID).Msg("storage delete failed during note removal")
		}
	}

	if err := h.dbclient.DeleteChunksByNote(r.Context(), subjectID, noteID); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.dbclient.DeleteNote(r.Context(), subjectID, noteID); err != nil {
		writeErr(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "note deleted successfully")
}

// Reconcile handles POST /api/notes/{subjectID}/reconcile. It reports chunks
// with no owning note and notes with no chunks; ?purge=true also deletes the
// orphaned chunks.
func (h *NoteHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	subject, err := h.dbclient.GetSubject(r.Context(), subjectID, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if subject == nil {
		writeMessage(w, http.StatusNotFound, "subject not found")
		return
	}

	purge := r.URL.Query().Get("purge") == "true"
	report, err := h.ingestor.Reconcile(r.Context(), subjectID, purge)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
