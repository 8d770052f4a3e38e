package repositories

import (
	"context"
	"log/slog"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
)

type NoteRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewNoteRepository(dbs *sqlite.Database, logger *slog.Logger) *NoteRepository {
	return &NoteRepository{
		dbs:    dbs,
		logger: logger.With("source", "NoteRepository"),
	}
}

func (r *NoteRepository) Add(ctx context.Context, note *models.OfficialNote) error {
	stmt := `INSERT INTO official_notes (complaint_id, author_id, body) VALUES (?, ?, ?)`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, note.ComplaintID, note.AuthorID, note.Body)
	if err != nil {
		return errors.Wrap(err, "insert official note")
	}
	if note.ID, err = result.LastInsertId(); err != nil {
		return errors.Wrap(err, "last insert id")
	}
	return nil
}

// ListByComplaint returns the notes on a complaint, oldest first, with the
// author's display name joined in.
func (r *NoteRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.OfficialNote, error) {
	notes := []models.OfficialNote{}
	stmt := `SELECT n.id, n.complaint_id, n.author_id, u.display_name AS author_name, n.body, n.created_at
FROM official_notes n
JOIN users u ON u.id = n.author_id
WHERE n.complaint_id = ?
ORDER BY n.created_at, n.id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &notes, stmt, complaintID); err != nil {
		return nil, errors.Wrap(err, "list official notes")
	}
	return notes, nil
}
