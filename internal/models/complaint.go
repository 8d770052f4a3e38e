package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kishanss4/corrupt-watch/internal/errors"
)

// ComplaintStatus is the review state of a complaint. Officers may move a
// complaint to any status from any other, there is no forward-only machine.
type ComplaintStatus string

const (
	StatusPending  ComplaintStatus = "pending"
	StatusInReview ComplaintStatus = "in_review"
	StatusVerified ComplaintStatus = "verified"
	StatusResolved ComplaintStatus = "resolved"
	StatusRejected ComplaintStatus = "rejected"
)

// ComplaintStatuses lists every status a complaint can hold.
var ComplaintStatuses = []ComplaintStatus{
	StatusPending, StatusInReview, StatusVerified, StatusResolved, StatusRejected,
}

func (s ComplaintStatus) Valid() bool {
	for _, known := range ComplaintStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type ComplaintCategory string

const (
	CategoryBribery        ComplaintCategory = "bribery"
	CategoryMisconduct     ComplaintCategory = "misconduct"
	CategoryMisuseOfFunds  ComplaintCategory = "misuse_of_funds"
	CategoryNegligence     ComplaintCategory = "negligence"
	CategoryInfrastructure ComplaintCategory = "infrastructure"
	CategoryOther          ComplaintCategory = "other"
)

var complaintCategories = []ComplaintCategory{
	CategoryBribery, CategoryMisconduct, CategoryMisuseOfFunds,
	CategoryNegligence, CategoryInfrastructure, CategoryOther,
}

func (c ComplaintCategory) Valid() bool {
	for _, known := range complaintCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultUrgencyScore is assigned at creation until automated analysis
// overwrites it.
const DefaultUrgencyScore = 5

// HashList is an ordered list of evidence content hashes, stored as a JSON
// array in a single column.
type HashList []string

func (h HashList) Value() (driver.Value, error) {
	if h == nil {
		h = HashList{}
	}
	out, err := json.Marshal(h)
	if err != nil {
		return nil, errors.Wrap(err, "marshal hash list")
	}
	return out, nil
}

func (h *HashList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("unsupported hash list source type")
	}
}

// Join returns the comma-joined hashes recorded in audit log entries, the
// empty string when there is no evidence.
func (h HashList) Join() string {
	return strings.Join(h, ",")
}

// Complaint is the central record of the system.
//
// TrackingCode is non-null exactly when IsAnonymous is true and never changes
// once assigned. OwnerID is retained only for non-anonymous complaints.
type Complaint struct {
	ID             string            `db:"id" json:"id"`
	Title          string            `db:"title" json:"title"`
	Description    string            `db:"description" json:"description"`
	Category       ComplaintCategory `db:"category" json:"category"`
	Status         ComplaintStatus   `db:"status" json:"status"`
	IsAnonymous    bool              `db:"is_anonymous" json:"isAnonymous"`
	TrackingCode   *string           `db:"tracking_code" json:"trackingCode,omitempty"`
	OwnerID        []byte            `db:"owner_id" json:"-"`
	Location       string            `db:"location" json:"location"`
	Latitude       *float64          `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64          `db:"longitude" json:"longitude,omitempty"`
	UrgencyScore   int               `db:"urgency_score" json:"urgencyScore"`
	EvidenceHashes HashList          `db:"evidence_hashes" json:"evidenceHashes"`
	AIMetadata     json.RawMessage   `db:"ai_metadata" json:"aiMetadata,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`
}

// ErrValidation marks submission errors that are surfaced verbatim to the
// caller before any write is attempted.
var ErrValidation = errors.NewSentinel("invalid complaint submission")

const (
	minTitleLen       = 10
	maxTitleLen       = 200
	minDescriptionLen = 50
	maxDescriptionLen = 5000
	minLocationLen    = 3
)

// ComplaintSubmission carries the citizen-provided fields of a new complaint.
type ComplaintSubmission struct {
	Title       string
	Description string
	Category    ComplaintCategory
	Location    string
	Latitude    *float64
	Longitude   *float64
	IsAnonymous bool
}

// Validate checks the submission constraints. All violations are reported at
// once so the citizen can fix the form in one go.
func (s ComplaintSubmission) Validate() error {
	var errs []error

	if n := utf8.RuneCountInString(strings.TrimSpace(s.Title)); n < minTitleLen || n > maxTitleLen {
		errs = append(errs, errors.Wrap(ErrValidation, "title must be between 10 and 200 characters"))
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(s.Description)); n < minDescriptionLen || n > maxDescriptionLen {
		errs = append(errs, errors.Wrap(ErrValidation, "description must be between 50 and 5000 characters"))
	}
	if !s.Category.Valid() {
		errs = append(errs, errors.Wrap(ErrValidation, "unknown category"))
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Location)) < minLocationLen {
		errs = append(errs, errors.Wrap(ErrValidation, "location must be at least 3 characters"))
	}
	if s.Latitude != nil && (*s.Latitude < -90 || *s.Latitude > 90) {
		errs = append(errs, errors.Wrap(ErrValidation, "latitude out of range"))
	}
	if s.Longitude != nil && (*s.Longitude < -180 || *s.Longitude > 180) {
		errs = append(errs, errors.Wrap(ErrValidation, "longitude out of range"))
	}

	return errors.Join(errs...)
}
