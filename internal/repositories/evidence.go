package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
)

type EvidenceRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewEvidenceRepository(dbs *sqlite.Database, logger *slog.Logger) *EvidenceRepository {
	return &EvidenceRepository{
		dbs:    dbs,
		logger: logger.With("source", "EvidenceRepository"),
	}
}

// Add appends an evidence file to a complaint. The position is assigned from
// the previous maximum so files keep their submission order.
func (r *EvidenceRepository) Add(ctx context.Context, file *models.EvidenceFile) error {
	stmt := `INSERT INTO evidence_files (complaint_id, file_name, url, hash, position)
VALUES (@complaint_id, @file_name, @url, @hash,
        (SELECT COALESCE(MAX(position) + 1, 0) FROM evidence_files WHERE complaint_id = @complaint_id))`
	params := []any{
		sql.Named("complaint_id", file.ComplaintID),
		sql.Named("file_name", file.FileName),
		sql.Named("url", file.URL),
		sql.Named("hash", file.Hash),
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, params...)
	if err != nil {
		return errors.Wrap(err, "insert evidence file")
	}
	if file.ID, err = result.LastInsertId(); err != nil {
		return errors.Wrap(err, "last insert id")
	}
	return nil
}

// ListByComplaint returns the files of a complaint in submission order.
func (r *EvidenceRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.EvidenceFile, error) {
	files := []models.EvidenceFile{}
	stmt := `SELECT id, complaint_id, file_name, url, hash, position, created_at
FROM evidence_files
WHERE complaint_id = ?
ORDER BY position`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &files, stmt, complaintID); err != nil {
		return nil, errors.Wrap(err, "list evidence files")
	}
	return files, nil
}
