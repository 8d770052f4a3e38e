package repositories

import (
	"context"
	"log/slog"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
)

// AuditLogRepository appends and reads the per-complaint audit trail. Entries
// are never updated or deleted; the insert timestamp comes from the store.
type AuditLogRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewAuditLogRepository(dbs *sqlite.Database, logger *slog.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		dbs:    dbs,
		logger: logger.With("source", "AuditLogRepository"),
	}
}

// Append records one action against a complaint. metadataHash is the
// comma-joined evidence hash list at the time of the action, empty when the
// complaint carries no evidence.
func (r *AuditLogRepository) Append(ctx context.Context, complaintID, action, metadataHash string) error {
	stmt := `INSERT INTO audit_log_entries (complaint_id, action, metadata_hash) VALUES (?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, complaintID, action, metadataHash); err != nil {
		return errors.Wrap(err, "append audit log entry")
	}
	return nil
}

// List returns the trail for a complaint in insertion order.
func (r *AuditLogRepository) List(ctx context.Context, complaintID string) ([]models.AuditLogEntry, error) {
	entries := []models.AuditLogEntry{}
	stmt := `SELECT id, complaint_id, action, metadata_hash, created_at
FROM audit_log_entries
WHERE complaint_id = ?
ORDER BY created_at, id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &entries, stmt, complaintID); err != nil {
		return nil, errors.Wrap(err, "list audit log entries")
	}
	return entries, nil
}
