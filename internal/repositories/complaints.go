package repositories

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
	"github.com/kishanss4/corrupt-watch/internal/tracking"
)

// trackingCodeAttempts bounds the collision-retry loop. The UNIQUE constraint
// on the column remains the correctness guarantee; the loop only avoids
// constraint errors under normal load.
const trackingCodeAttempts = 10

// ErrTrackingCodeExhausted is returned when no free tracking code was found
// within the attempt bound. The complaint insert is rolled back.
var ErrTrackingCodeExhausted = errors.NewSentinel("could not issue a unique tracking code")

type ComplaintRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewComplaintRepository(dbs *sqlite.Database, logger *slog.Logger) *ComplaintRepository {
	return &ComplaintRepository{
		dbs:    dbs,
		logger: logger.With("source", "ComplaintRepository"),
	}
}

const insertComplaintStmt = `INSERT INTO complaints
(id, title, description, category, status, is_anonymous, tracking_code, owner_id,
 location, latitude, longitude, urgency_score, evidence_hashes, ai_metadata, created_at, updated_at)
VALUES (:id, :title, :description, :category, :status, :is_anonymous, :tracking_code, :owner_id,
        :location, :latitude, :longitude, :urgency_score, :evidence_hashes, :ai_metadata, :created_at, :updated_at)`

// Create inserts a new complaint row. For anonymous complaints without a code
// it issues a tracking code inside the same transaction as the insert: the
// existence check against the committed table avoids constraint errors under
// normal load, the column's UNIQUE constraint settles races between
// concurrent writers, and a collision on insert simply burns one attempt.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.EvidenceHashes == nil {
		c.EvidenceHashes = models.HashList{}
	}

	tx, err := r.dbs.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if !c.IsAnonymous || c.TrackingCode != nil {
		if _, err = tx.NamedExecContext(ctx, insertComplaintStmt, c); err != nil {
			return errors.Wrap(err, "insert complaint")
		}
		return errors.Wrap(tx.Commit(), "commit complaint")
	}

	for attempt := 0; attempt < trackingCodeAttempts; attempt++ {
		var code string
		if code, err = tracking.NewCode(); err != nil {
			return errors.Wrap(err, "generate tracking code")
		}

		var taken bool
		stmt := `SELECT EXISTS (SELECT 1 FROM complaints WHERE tracking_code = ?)`
		if err = tx.GetContext(ctx, &taken, stmt, code); err != nil {
			return errors.Wrap(err, "check tracking code")
		}
		if taken {
			continue
		}

		c.TrackingCode = &code
		if _, err = tx.NamedExecContext(ctx, insertComplaintStmt, c); err != nil {
			if isUniqueViolation(err, "complaints.tracking_code") {
				c.TrackingCode = nil
				continue
			}
			return errors.Wrap(err, "insert complaint")
		}
		return errors.Wrap(tx.Commit(), "commit complaint")
	}

	c.TrackingCode = nil
	return errors.Wrap(ErrTrackingCodeExhausted, "create anonymous complaint",
		slog.Int("attempts", trackingCodeAttempts))
}

const selectComplaintStmt = `SELECT id, title, description, category, status, is_anonymous, tracking_code,
owner_id, location, latitude, longitude, urgency_score, evidence_hashes, ai_metadata, created_at, updated_at
FROM complaints`

func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := r.dbs.ReadOnly.GetContext(ctx, &c, selectComplaintStmt+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "complaint by id")
		}
		return nil, errors.Wrap(err, "read complaint")
	}
	return &c, nil
}

func (r *ComplaintRepository) GetByTrackingCode(ctx context.Context, code string) (*models.Complaint, error) {
	var c models.Complaint
	if err := r.dbs.ReadOnly.GetContext(ctx, &c, selectComplaintStmt+` WHERE tracking_code = ?`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "complaint by tracking code")
		}
		return nil, errors.Wrap(err, "read complaint by tracking code")
	}
	return &c, nil
}

// ListAll returns every complaint, newest first. Only privileged callers are
// allowed this view; the service layer enforces that.
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	stmt := selectComplaintStmt + ` ORDER BY created_at DESC, id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &complaints, stmt); err != nil {
		return nil, errors.Wrap(err, "list complaints")
	}
	return complaints, nil
}

func (r *ComplaintRepository) ListByOwner(ctx context.Context, ownerID []byte) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	stmt := selectComplaintStmt + ` WHERE owner_id = ? ORDER BY created_at DESC, id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &complaints, stmt, ownerID); err != nil {
		return nil, errors.Wrap(err, "list complaints by owner")
	}
	return complaints, nil
}

// UpdateStatus sets the status without constraining the transition: any of
// the five values is reachable from any other.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus) error {
	stmt := `UPDATE complaints SET status = ?, updated_at = ? WHERE id = ?`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, status, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return errors.Wrap(err, "update complaint status")
	}
	return rowFound(result, "complaint")
}

// UpdateEvidenceHashes replaces the aggregated hash list after evidence
// uploads complete.
func (r *ComplaintRepository) UpdateEvidenceHashes(ctx context.Context, id string, hashes models.HashList) error {
	stmt := `UPDATE complaints SET evidence_hashes = ?, updated_at = ? WHERE id = ?`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, hashes, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return errors.Wrap(err, "update evidence hashes")
	}
	return rowFound(result, "complaint")
}

// UpdateAnalysis stores the automated analysis outcome.
func (r *ComplaintRepository) UpdateAnalysis(ctx context.Context, id string, urgencyScore int, metadata []byte) error {
	stmt := `UPDATE complaints SET urgency_score = ?, ai_metadata = ?, updated_at = ? WHERE id = ?`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, urgencyScore, metadata, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return errors.Wrap(err, "update complaint analysis")
	}
	return rowFound(result, "complaint")
}

func rowFound(result sql.Result, record string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, record)
	}
	return nil
}
