package models

// ChangeType tags a record change delivered on the live feed.
type ChangeType string

const (
	ChangeInserted ChangeType = "inserted"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
)

// ChangeEvent is one complaint-table change pushed to feed subscribers, who
// fold the stream into their local view state.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	Complaint Complaint  `json:"complaint"`
}
