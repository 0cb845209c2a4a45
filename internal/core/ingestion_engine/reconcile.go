package ingestion_engine

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ReconcileReport lists the rows stranded by partial failures: chunks whose
// note reference was never written (or already deleted), and note references
// whose chunks are gone.
type ReconcileReport struct {
	OrphanChunkNoteIDs []string `json:"orphan_chunk_note_ids"`
	EmptyNoteIDs       []string `json:"empty_note_ids"`
	PurgedNoteIDs      []string `json:"purged_note_ids,omitempty"`
}

// Reconcile scans both directions of the note/chunk join for one subject.
// With purge set it also deletes the orphaned chunks; empty note references
// are only reported, since the original file may still be recoverable from
// object storage.
func (i *NoteIngestor) Reconcile(ctx context.Context, subjectID string, purge bool) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := i.db.FindOrphanChunkNoteIDs(gctx, subjectID)
		if err != nil {
			return err
		}
		report.OrphanChunkNoteIDs = ids
		return nil
	})
	g.Go(func() error {
		ids, err := i.db.FindNotesWithoutChunks(gctx, subjectID)
		if err != nil {
			return err
		}
		report.EmptyNoteIDs = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if purge {
		for _, noteID := range report.OrphanChunkNoteIDs {
			if err := i.db.DeleteChunksByNote(ctx, subjectID, noteID); err != nil {
				return report, err
			}
			report.PurgedNoteIDs = append(report.PurgedNoteIDs, noteID)
		}
	}

	if len(report.OrphanChunkNoteIDs) > 0 || len(report.EmptyNoteIDs) > 0 {
		log.Warn().
			Str("subject_id", subjectID).
			Int("orphan_chunk_notes", len(report.OrphanChunkNoteIDs)).
			Int("empty_notes", len(report.EmptyNoteIDs)).
			Bool("purged", purge).
			Msg("reconcile found inconsistencies")
	}

	return report, nil
}
