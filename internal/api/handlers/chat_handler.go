package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	db "github.com/askmynotes/askmynotes/internal/core/database"
	"github.com/askmynotes/askmynotes/internal/core/llm"
	"github.com/askmynotes/askmynotes/internal/core/retrieval"
	"github.com/askmynotes/askmynotes/internal/models"
)

type ChatHandler struct {
	dbclient  db.DbClient
	retriever *retrieval.Retriever
	llm       llm.Provider
}

func NewChatHandler(dbclient db.DbClient, retriever *retrieval.Retriever, provider llm.Provider) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, retriever: retriever, llm: provider}
}

type chatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

const answerSystemPrompt = "You are a study assistant answering based only on the student's uploaded notes. If the notes do not contain the answer, say 'I cannot find this in your notes.'"

// Query handles POST /api/chat/{subjectID}/query: retrieve the most relevant
// chunks for the question and generate an answer grounded on them.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeMessage(w, http.StatusBadRequest, "question is required")
		return
	}

	subject, err := h.dbclient.GetSubject(ctx, subjectID, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if subject == nil {
		writeMessage(w, http.StatusNotFound, "subject not found")
		return
	}

	chunks, err := h.retriever.Retrieve(ctx, subjectID, req.Question, req.TopK)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if len(chunks) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"answer":  "You haven't uploaded any notes for this subject yet.",
			"sources": []models.RetrievedChunk{},
		})
		return
	}

	var sb strings.Builder
	for _, ch := range chunks {
		fmt.Fprintf(&sb, "[%s, page %d]\n%s\n---\n", ch.Metadata.Filename, ch.Metadata.Page, ch.Content)
	}
	userPrompt := fmt.Sprintf("Notes:\n%s\nQuestion: %s", sb.String(), req.Question)

	answer, err := h.llm.Generate(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		writeErr(w, r, fmt.Errorf("generate answer: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  answer,
		"sources": chunks,
	})
}
