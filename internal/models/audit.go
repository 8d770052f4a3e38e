package models

import "time"

// Audit log actions written by the application. Entries are append-only and
// never reference a prior entry, this is a transparency trail, not a chained
// ledger.
const (
	ActionComplaintCreated = "complaint_created"
	ActionEvidenceAttached = "evidence_attached"
)

// AuditLogEntry records one action taken against a complaint. The timestamp
// is assigned by the store at insert time.
type AuditLogEntry struct {
	ID           int64     `db:"id" json:"id"`
	ComplaintID  string    `db:"complaint_id" json:"complaintId"`
	Action       string    `db:"action" json:"action"`
	MetadataHash string    `db:"metadata_hash" json:"metadataHash"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
