package models

import "time"

// OfficialNote is an internal note on a complaint authored by a government or
// admin user. Notes are append-only from the application's perspective.
type OfficialNote struct {
	ID          int64     `db:"id" json:"id"`
	ComplaintID string    `db:"complaint_id" json:"complaintId"`
	AuthorID    []byte    `db:"author_id" json:"-"`
	AuthorName  string    `db:"author_name" json:"authorName"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
