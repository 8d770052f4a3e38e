// Package complaints orchestrates the complaint lifecycle: submission with
// evidence upload and audit logging, visibility rules per caller role, status
// changes and AI-assisted triage. Handlers stay thin and call into here.
package complaints

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kishanss4/corrupt-watch/internal/ai"
	"github.com/kishanss4/corrupt-watch/internal/broker"
	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/filestore"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/kishanss4/corrupt-watch/internal/tracking"
)

// ErrNotAuthorized marks operations outside the caller's granted scope. It
// is deliberately free of detail about the record involved.
var ErrNotAuthorized = errors.NewSentinel("not authorized")

// ErrNotFound is returned for records that do not exist and for records the
// caller is not allowed to know exist.
var ErrNotFound = repositories.ErrNotFound

// Identity is the caller as established by the session middleware. A zero
// Identity is an unauthenticated caller.
type Identity struct {
	UserID []byte
	Role   models.Role
}

func (i Identity) Authenticated() bool {
	return len(i.UserID) > 0
}

func (i Identity) Privileged() bool {
	return i.Role.Privileged()
}

// Upload is one evidence file in a submission, in submission order.
type Upload struct {
	FileName string
	Contents io.Reader
}

// Analyzer produces AI triage results for a complaint. Satisfied by
// ai.Client.
type Analyzer interface {
	Analyze(ctx context.Context, complaint *models.Complaint) (ai.Analysis, error)
	SuggestStatus(ctx context.Context, complaint *models.Complaint) (models.ComplaintStatus, error)
	DraftNote(ctx context.Context, complaint *models.Complaint) (string, error)
}

type Service struct {
	complaints *repositories.ComplaintRepository
	evidence   *repositories.EvidenceRepository
	audit      *repositories.AuditLogRepository
	notes      *repositories.NoteRepository
	files      filestore.Store
	analyzer   Analyzer
	feed       *broker.FeedBroker[models.ChangeEvent]
	logger     *slog.Logger
}

func NewService(
	complaints *repositories.ComplaintRepository,
	evidence *repositories.EvidenceRepository,
	audit *repositories.AuditLogRepository,
	notes *repositories.NoteRepository,
	files filestore.Store,
	analyzer Analyzer,
	feed *broker.FeedBroker[models.ChangeEvent],
	logger *slog.Logger,
) *Service {
	return &Service{
		complaints: complaints,
		evidence:   evidence,
		audit:      audit,
		notes:      notes,
		files:      files,
		analyzer:   analyzer,
		feed:       feed,
		logger:     logger.With("source", "ComplaintService"),
	}
}

// Submit validates and creates a complaint together with its evidence files.
//
// The flow is not compensated: once the complaint row is committed, a failing
// upload or audit write leaves the row in place and returns the error of the
// failed step. The caller still learns the complaint id or tracking code
// from the persisted row.
func (s *Service) Submit(ctx context.Context, caller Identity, submission models.ComplaintSubmission, uploads []Upload) (*models.Complaint, error) {
	if !submission.IsAnonymous && !caller.Authenticated() {
		return nil, errors.Wrap(ErrNotAuthorized, "identified submission requires a session")
	}
	if err := submission.Validate(); err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		ID:           uuid.NewString(),
		Title:        submission.Title,
		Description:  submission.Description,
		Category:     submission.Category,
		IsAnonymous:  submission.IsAnonymous,
		Location:     submission.Location,
		Latitude:     submission.Latitude,
		Longitude:    submission.Longitude,
		UrgencyScore: models.DefaultUrgencyScore,
	}
	if !submission.IsAnonymous {
		complaint.OwnerID = caller.UserID
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, errors.Wrap(err, "create complaint")
	}

	hashes := models.HashList{}
	for _, upload := range uploads {
		hash, err := s.attachFile(ctx, complaint, upload)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if err := s.complaints.UpdateEvidenceHashes(ctx, complaint.ID, hashes); err != nil {
		return nil, errors.Wrap(err, "record evidence hashes")
	}
	complaint.EvidenceHashes = hashes

	if err := s.audit.Append(ctx, complaint.ID, models.ActionComplaintCreated, hashes.Join()); err != nil {
		return nil, errors.Wrap(err, "append audit log entry")
	}

	s.feed.Publish(models.ChangeEvent{Type: models.ChangeInserted, Complaint: *complaint})
	s.logger.LogAttrs(ctx, slog.LevelInfo, "complaint submitted",
		slog.String("id", complaint.ID),
		slog.Bool("anonymous", complaint.IsAnonymous),
		slog.Int("evidence_files", len(uploads)))
	return complaint, nil
}

// attachFile hashes and stores one upload and records the evidence row. The
// hash is computed over the exact bytes written to storage.
func (s *Service) attachFile(ctx context.Context, complaint *models.Complaint, upload Upload) (string, error) {
	hasher := sha256.New()
	name := ownerSegment(complaint) + "/" + complaint.ID + "/" + upload.FileName
	url, err := s.files.Put(ctx, name, io.TeeReader(upload.Contents, hasher))
	if err != nil {
		return "", errors.Wrap(err, "store evidence file", slog.String("file_name", upload.FileName))
	}
	hash := hex.EncodeToString(hasher.Sum(nil))
	file := models.EvidenceFile{
		ComplaintID: complaint.ID,
		FileName:    upload.FileName,
		URL:         url,
		Hash:        hash,
	}
	if err = s.evidence.Add(ctx, &file); err != nil {
		return "", errors.Wrap(err, "record evidence file", slog.String("file_name", upload.FileName))
	}
	return hash, nil
}

func ownerSegment(complaint *models.Complaint) string {
	if complaint.IsAnonymous {
		return "anonymous"
	}
	return base64.RawURLEncoding.EncodeToString(complaint.OwnerID)
}

// Get returns a complaint by id. Owners see their own complaints,
// privileged callers see everything, everyone else gets ErrNotFound so the
// record's existence stays hidden.
func (s *Service) Get(ctx context.Context, caller Identity, id string) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canRead(caller, complaint) {
		return nil, errors.Wrap(ErrNotFound, "complaint hidden from caller")
	}
	return complaint, nil
}

func (s *Service) canRead(caller Identity, complaint *models.Complaint) bool {
	if caller.Privileged() {
		return true
	}
	return !complaint.IsAnonymous && caller.Authenticated() && bytes.Equal(complaint.OwnerID, caller.UserID)
}

// List returns every complaint for privileged callers and the caller's own
// complaints for citizens.
func (s *Service) List(ctx context.Context, caller Identity) ([]models.Complaint, error) {
	if caller.Privileged() {
		return s.complaints.ListAll(ctx)
	}
	if !caller.Authenticated() {
		return nil, errors.Wrap(ErrNotAuthorized, "listing requires a session")
	}
	return s.complaints.ListByOwner(ctx, caller.UserID)
}

// Track is the unauthenticated self-service lookup by tracking code.
func (s *Service) Track(ctx context.Context, code string) (*models.Complaint, error) {
	if !tracking.Valid(code) {
		return nil, errors.Wrap(ErrNotFound, "malformed tracking code")
	}
	return s.complaints.GetByTrackingCode(ctx, code)
}

// UpdateStatus moves a complaint to the given status. Any status is
// reachable from any other. Privileged callers only.
func (s *Service) UpdateStatus(ctx context.Context, caller Identity, id string, status models.ComplaintStatus) (*models.Complaint, error) {
	if !caller.Privileged() {
		return nil, errors.Wrap(ErrNotAuthorized, "status changes require an elevated role")
	}
	if !status.Valid() {
		return nil, errors.Wrap(models.ErrValidation, "unknown status")
	}
	if err := s.complaints.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.feed.Publish(models.ChangeEvent{Type: models.ChangeUpdated, Complaint: *complaint})
	return complaint, nil
}

// AttachEvidence adds a file to an existing complaint. The caller proves
// their claim either by owning the complaint or by presenting its tracking
// code.
func (s *Service) AttachEvidence(ctx context.Context, caller Identity, id string, trackingCode string, upload Upload) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAttach(caller, complaint, trackingCode) {
		return nil, errors.Wrap(ErrNotFound, "complaint hidden from caller")
	}

	hash, err := s.attachFile(ctx, complaint, upload)
	if err != nil {
		return nil, err
	}
	hashes := append(complaint.EvidenceHashes, hash)
	if err = s.complaints.UpdateEvidenceHashes(ctx, complaint.ID, hashes); err != nil {
		return nil, errors.Wrap(err, "record evidence hashes")
	}
	complaint.EvidenceHashes = hashes

	if err = s.audit.Append(ctx, complaint.ID, models.ActionEvidenceAttached, hashes.Join()); err != nil {
		return nil, errors.Wrap(err, "append audit log entry")
	}

	s.feed.Publish(models.ChangeEvent{Type: models.ChangeUpdated, Complaint: *complaint})
	return complaint, nil
}

func (s *Service) canAttach(caller Identity, complaint *models.Complaint, trackingCode string) bool {
	if complaint.IsAnonymous {
		return complaint.TrackingCode != nil && trackingCode == *complaint.TrackingCode
	}
	return caller.Authenticated() && bytes.Equal(complaint.OwnerID, caller.UserID)
}

// Evidence lists the files of a complaint under the same visibility rule as
// Get.
func (s *Service) Evidence(ctx context.Context, caller Identity, id string) ([]models.EvidenceFile, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.evidence.ListByComplaint(ctx, id)
}

// AuditTrail returns the append-only action log of a complaint. The trail is
// public, it exists for transparency and never carries identity data.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]models.AuditLogEntry, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, id)
}

// AddNote appends an internal note. Privileged callers only.
func (s *Service) AddNote(ctx context.Context, caller Identity, id string, body string) (*models.OfficialNote, error) {
	if !caller.Privileged() {
		return nil, errors.Wrap(ErrNotAuthorized, "notes require an elevated role")
	}
	if body == "" {
		return nil, errors.Wrap(models.ErrValidation, "note body must not be empty")
	}
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, err
	}
	note := models.OfficialNote{
		ComplaintID: id,
		AuthorID:    caller.UserID,
		Body:        body,
	}
	if err := s.notes.Add(ctx, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Notes lists the internal notes of a complaint. Privileged callers only.
func (s *Service) Notes(ctx context.Context, caller Identity, id string) ([]models.OfficialNote, error) {
	if !caller.Privileged() {
		return nil, errors.Wrap(ErrNotAuthorized, "notes require an elevated role")
	}
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.notes.ListByComplaint(ctx, id)
}

// Analyze runs AI triage over the complaint and persists the resulting
// urgency score and metadata. Privileged callers only.
func (s *Service) Analyze(ctx context.Context, caller Identity, id string) (ai.Analysis, error) {
	complaint, err := s.Get(ctx, caller, id)
	if err != nil {
		return ai.Analysis{}, err
	}
	if !caller.Privileged() {
		return ai.Analysis{}, errors.Wrap(ErrNotAuthorized, "analysis requires an elevated role")
	}
	analysis, err := s.analyzer.Analyze(ctx, complaint)
	if err != nil {
		return ai.Analysis{}, err
	}
	metadata, err := json.Marshal(analysis)
	if err != nil {
		return ai.Analysis{}, errors.Wrap(err, "marshal analysis")
	}
	if err = s.complaints.UpdateAnalysis(ctx, id, analysis.UrgencyScore, metadata); err != nil {
		return ai.Analysis{}, err
	}
	complaint, err = s.complaints.GetByID(ctx, id)
	if err != nil {
		return ai.Analysis{}, err
	}
	s.feed.Publish(models.ChangeEvent{Type: models.ChangeUpdated, Complaint: *complaint})
	return analysis, nil
}

// SuggestStatus asks the AI gateway for a status suggestion without
// persisting anything. Privileged callers only.
func (s *Service) SuggestStatus(ctx context.Context, caller Identity, id string) (models.ComplaintStatus, error) {
	complaint, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	if !caller.Privileged() {
		return "", errors.Wrap(ErrNotAuthorized, "suggestions require an elevated role")
	}
	return s.analyzer.SuggestStatus(ctx, complaint)
}

// DraftNote asks the AI gateway for a note draft without persisting
// anything. Privileged callers only.
func (s *Service) DraftNote(ctx context.Context, caller Identity, id string) (string, error) {
	complaint, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	if !caller.Privileged() {
		return "", errors.Wrap(ErrNotAuthorized, "drafts require an elevated role")
	}
	return s.analyzer.DraftNote(ctx, complaint)
}

// Subscribe registers a live feed subscriber. The channel is closed on
// Unsubscribe or when the feed shuts down.
func (s *Service) Subscribe() chan models.ChangeEvent {
	return s.feed.Subscribe()
}

// Unsubscribe removes a live feed subscriber.
func (s *Service) Unsubscribe(channel chan models.ChangeEvent) {
	s.feed.Unsubscribe(channel)
}
