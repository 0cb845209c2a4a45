package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/askmynotes/askmynotes/internal/config"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	objectclient "github.com/askmynotes/askmynotes/internal/core/object-client"
	"github.com/askmynotes/askmynotes/internal/models"
)

type SubjectHandler struct {
	dbclient db.DbClient
	storage  objectclient.ObjectClient
	cfg      *config.Config
}

func NewSubjectHandler(dbclient db.DbClient, storage objectclient.ObjectClient, cfg *config.Config) *SubjectHandler {
	return &SubjectHandler{dbclient: dbclient, storage: storage, cfg: cfg}
}

type createSubjectRequest struct {
	Name string `json:"name"`
}

func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "subject name is required")
		return
	}

	subject := &models.Subject{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := h.dbclient.CreateSubject(r.Context(), subject); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *SubjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subjects, err := h.dbclient.ListSubjectsByUser(r.Context(), userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	writeJSON(w, http.StatusOK, subjects)
}

// Delete removes the subject, its note references, its chunks, and
// (best-effort) the stored originals. The deletions run as independent
// statements; a failure partway through leaves rows the reconcile endpoint
// can find later.
func (h *SubjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	notes, err := h.dbclient.ListNotesWithStorageKey(r.Context(), subjectID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	// Stored originals are a backup copy only; failures are logged, not fatal.
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for _, note := range notes {
		key := *note.StorageKey
		noteID := note.ID
		g.Go(func() error {
			if err := h.storage.DeleteFile(gctx, h.cfg.BucketName, key); err != nil {
				log.Warn().Err(err).Str("note_id", noteID).Msg("storage delete failed during subject removal")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := h.dbclient.DeleteChunksBySubject(r.Context(), subjectID); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.dbclient.DeleteSubject(r.Context(), subjectID, userID); err != nil {
		writeErr(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "subject deleted successfully")
}
