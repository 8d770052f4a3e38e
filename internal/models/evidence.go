package models

import "time"

// EvidenceFile is a file attached to exactly one complaint together with the
// content hash computed before upload. The hash is a tamper-evidence marker,
// not a deduplication key.
type EvidenceFile struct {
	ID          int64     `db:"id" json:"id"`
	ComplaintID string    `db:"complaint_id" json:"complaintId"`
	FileName    string    `db:"file_name" json:"fileName"`
	URL         string    `db:"url" json:"url"`
	Hash        string    `db:"hash" json:"hash"`
	Position    int64     `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
