// Package complaint is the complaint lifecycle manager. It owns the status
// state machine, keeps status and response consistent, records the change
// history and decides when the admin channel is notified.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// validate backs the service-side checks that must hold for callers that
// bypass HTTP binding, such as the admin CLI.
var validate = validator.New()

// Notifier delivers admin-channel messages. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Service handles the business logic for complaints.
type Service struct {
	Storage  storage.Storage
	Notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a new complaint service. notifier may be nil.
func NewService(s storage.Storage, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Storage:  s,
		Notifier: notifier,
		log:      log.Named("complaint"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitInput is the public submission form. Any status sent by the client is ignored.
type SubmitInput struct {
	Title          string                  `json:"title"`
	Description    string                  `json:"description" binding:"required"`
	Category       string                  `json:"category" binding:"required"`
	Status         string                  `json:"status,omitempty"`
	LocationID     string                  `json:"location_id,omitempty" binding:"omitempty,uuid"`
	ContactEmail   string                  `json:"contact_email,omitempty" binding:"omitempty,email"`
	ContactPhone   string                  `json:"contact_phone,omitempty"`
	Rating         *int                    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Attachments    []models.FileAttachment `json:"attachments,omitempty"`
	IdempotencyKey string                  `json:"-"`
}

func (in SubmitInput) build(now time.Time) (*models.Complaint, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, invalid("description", "must not be empty")
	}
	if utf8.RuneCountInString(desc) > config.MaxDescriptionLength {
		return nil, invalid("description", "too long")
	}
	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) > config.MaxTitleLength {
		return nil, invalid("title", "too long")
	}
	category := strings.TrimSpace(in.Category)
	if !config.IsValidCategory(category) {
		return nil, invalid("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.Rating != nil && (*in.Rating < config.MinRating || *in.Rating > config.MaxRating) {
		return nil, invalid("rating", fmt.Sprintf("must be between %d and %d", config.MinRating, config.MaxRating))
	}
	email := strings.TrimSpace(in.ContactEmail)
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, invalid("contact_email", "not an email address")
		}
	}
	var location *string
	if id := strings.TrimSpace(in.LocationID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, invalid("location_id", "not a valid id")
		}
		location = &id
	}
	attachments := models.UsableAttachments(in.Attachments)
	if len(attachments) > config.MaxAttachmentsPerComplaint {
		return nil, invalid("attachments", fmt.Sprintf("at most %d files", config.MaxAttachmentsPerComplaint))
	}

	var rating *int
	if in.Rating != nil {
		r := *in.Rating
		rating = &r
	}
	return &models.Complaint{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  desc,
		Category:     category,
		Status:       models.StatusNew,
		LocationID:   location,
		ContactEmail: email,
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Rating:       rating,
		Attachments:  attachments,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Submit creates a complaint in status new. A repeated IdempotencyKey returns
// the complaint created by the first request; replayed reports that case.
func (s *Service) Submit(ctx context.Context, sess auth.Session, in SubmitInput) (c *models.Complaint, replayed bool, err error) {
	c, err = in.build(s.now())
	if err != nil {
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		owner, claimed, err := s.Storage.ClaimIdempotencyKey(ctx, in.IdempotencyKey, c.ID, config.IdempotencyKeyTTL)
		if err != nil {
			return nil, false, fmt.Errorf("complaint: submit: %w", err)
		}
		if !claimed {
			existing, err := s.load(ctx, owner)
			if errors.Is(err, ErrNotFound) {
				// The first request is still in flight or failed without releasing the key.
				return nil, false, ErrConflict
			}
			if err != nil {
				return nil, false, err
			}
			return existing, true, nil
		}
	}

	if err := s.Storage.CreateComplaint(ctx, c); err != nil {
		if in.IdempotencyKey != "" {
			if rerr := s.Storage.ReleaseIdempotencyKey(ctx, in.IdempotencyKey); rerr != nil {
				s.log.Warn("release idempotency key", zap.String("key", in.IdempotencyKey), zap.Error(rerr))
			}
		}
		return nil, false, fmt.Errorf("complaint: submit: %w", err)
	}

	metrics.ComplaintSubmittedTotal.WithLabelValues(c.Category).Inc()
	s.log.Info("complaint submitted",
		zap.String("complaint_id", c.ID),
		zap.String("category", c.Category),
		zap.String("actor", sess.ActorID),
		zap.Int("attachments", len(c.Attachments)),
	)

	s.publish(ctx, models.LiveEvent{
		Type:        models.EventComplaintCreated,
		ComplaintID: c.ID,
		Status:      c.Status,
		ActorID:     sess.ActorID,
		At:          c.CreatedAt,
		Complaint:   c,
	})
	// Public submissions never page the admin channel; admin-entered ones do.
	if sess.Privileged() {
		s.notify(ctx, models.Notification{Kind: models.NotificationNewComplaint, Complaint: *c, ActorName: sess.Name()})
	}
	return c, false, nil
}

// Get returns one complaint.
func (s *Service) Get(ctx context.Context, sess auth.Session, id string) (*models.Complaint, error) {
	if !sess.Privileged() {
		return nil, ErrForbidden
	}
	return s.load(ctx, id)
}

// List returns one page of complaints and the total matching the filter.
func (s *Service) List(ctx context.Context, sess auth.Session, f storage.ComplaintFilter) ([]models.Complaint, int64, error) {
	if !sess.Privileged() {
		return nil, 0, ErrForbidden
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, 0, invalid("status", fmt.Sprintf("unknown status %q", st))
		}
	}
	if f.Category != "" && !config.IsValidCategory(f.Category) {
		return nil, 0, invalid("category", fmt.Sprintf("unknown category %q", f.Category))
	}
	list, total, err := s.Storage.ListComplaints(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("complaint: list: %w", err)
	}
	return list, total, nil
}

// ListAll walks every page matching f. Limit and Offset are ignored.
func (s *Service) ListAll(ctx context.Context, sess auth.Session, f storage.ComplaintFilter) ([]models.Complaint, error) {
	f.Limit, f.Offset = config.MaxPageSize, 0
	var all []models.Complaint
	for {
		page, total, err := s.List(ctx, sess, f)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < f.Limit || int64(len(all)) >= total {
			return all, nil
		}
		f.Offset += len(page)
	}
}

// History returns the audit trail of a complaint, oldest first.
func (s *Service) History(ctx context.Context, sess auth.Session, id string) ([]models.ChangeHistory, error) {
	if !sess.Privileged() {
		return nil, ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	h, err := s.Storage.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complaint: history: %w", err)
	}
	return h, nil
}

// UpdateOptions carries the optimistic-concurrency token. Zero skips the check.
type UpdateOptions struct {
	ExpectedVersion int
}

func (s *Service) TakeIntoWork(ctx context.Context, sess auth.Session, id string, opts UpdateOptions) (*models.Complaint, error) {
	return s.apply(ctx, sess, id, opts, takeIntoWork)
}

func (s *Service) Reject(ctx context.Context, sess auth.Session, id string, opts UpdateOptions) (*models.Complaint, error) {
	return s.apply(ctx, sess, id, opts, reject)
}

// AttachResponse answers a complaint in processing and resolves it.
func (s *Service) AttachResponse(ctx context.Context, sess auth.Session, id, text, adminName string, opts UpdateOptions) (*models.Complaint, error) {
	return s.apply(ctx, sess, id, opts, attachResponse(text, adminName))
}

func (s *Service) Reopen(ctx context.Context, sess auth.Session, id string, opts UpdateOptions) (*models.Complaint, error) {
	return s.apply(ctx, sess, id, opts, reopen)
}

// DeleteResponse removes the response and moves the complaint back to processing.
func (s *Service) DeleteResponse(ctx context.Context, sess auth.Session, id string, opts UpdateOptions) (*models.Complaint, error) {
	return s.apply(ctx, sess, id, opts, deleteResponse)
}

// SetPriority sets or, with an empty id, clears the priority.
func (s *Service) SetPriority(ctx context.Context, sess auth.Session, id, priorityID string, opts UpdateOptions) (*models.Complaint, error) {
	ref, err := optionalRef("priority_id", priorityID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, sess, id, opts, setPriority(ref))
}

// SetAssignee sets or, with an empty id, clears the assignee.
func (s *Service) SetAssignee(ctx context.Context, sess auth.Session, id, assigneeID string, opts UpdateOptions) (*models.Complaint, error) {
	ref, err := optionalRef("assignee_id", assigneeID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, sess, id, opts, setAssignee(ref))
}

// SetStatus dispatches a requested target status to the matching transition.
// It serves callers that only know the desired state, like a status dropdown.
func (s *Service) SetStatus(ctx context.Context, sess auth.Session, id, status string, opts UpdateOptions) (*models.Complaint, error) {
	target, ok := models.ParseStatus(status)
	if !ok {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	switch target {
	case models.StatusProcessing:
		return s.apply(ctx, sess, id, opts, func(c *models.Complaint, now time.Time) error {
			if c.Status == models.StatusNew {
				return takeIntoWork(c, now)
			}
			return reopen(c, now)
		})
	case models.StatusRejected:
		return s.apply(ctx, sess, id, opts, reject)
	case models.StatusResolved:
		return nil, &TransitionError{From: "any", Action: "resolve", Reason: "attach a response instead"}
	default:
		return nil, &TransitionError{From: "any", Action: "move to " + string(target)}
	}
}

func optionalRef(field, id string) (*string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid(field, "not a valid id")
	}
	return &id, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Complaint, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	c, err := s.Storage.GetComplaint(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complaint: load %s: %w", id, err)
	}
	return c, nil
}

// apply runs one mutation: load, check the version, transform, conditionally
// update, then write one history row per changed tracked field.
func (s *Service) apply(ctx context.Context, sess auth.Session, id string, opts UpdateOptions, fn transition) (*models.Complaint, error) {
	if !sess.Privileged() {
		return nil, ErrForbidden
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.ExpectedVersion > 0 && opts.ExpectedVersion != c.Version {
		metrics.ConflictTotal.Inc()
		return nil, ErrConflict
	}

	now := s.now()
	before := trackedValues(c)
	prevStatus := c.Status
	readVersion := c.Version

	next := *c
	if err := fn(&next, now); err != nil {
		return nil, err
	}
	changes := diffTracked(before, trackedValues(&next))
	if len(changes) == 0 {
		return c, nil
	}

	if now.Before(next.UpdatedAt) {
		now = next.UpdatedAt
	}
	next.UpdatedAt = now

	if err := s.Storage.UpdateComplaint(ctx, &next, readVersion); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			metrics.ConflictTotal.Inc()
			return nil, ErrConflict
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("complaint: update %s: %w", id, err)
	}

	if next.Status != prevStatus {
		metrics.RecordTransition(string(prevStatus), string(next.Status))
		s.log.Info("complaint transition",
			zap.String("complaint_id", next.ID),
			zap.String("from", string(prevStatus)),
			zap.String("to", string(next.Status)),
			zap.String("actor", sess.ActorID),
		)
	}

	fields := make([]string, 0, len(changes))
	for _, ch := range changes {
		fields = append(fields, ch.Field)
	}
	s.publish(ctx, models.LiveEvent{
		Type:        models.EventComplaintUpdated,
		ComplaintID: next.ID,
		Status:      next.Status,
		Fields:      fields,
		ActorID:     sess.ActorID,
		At:          now,
		Complaint:   &next,
	})

	histErr := s.recordHistory(ctx, sess, next.ID, changes, now)

	// The row is committed at this point, so the channel hears about it even
	// when the audit trail is incomplete.
	if next.Status != prevStatus || !sameValue(before[models.FieldResponse], trackedValues(&next)[models.FieldResponse]) {
		s.notify(ctx, models.Notification{
			Kind:           models.NotificationStatusUpdate,
			Complaint:      next,
			PreviousStatus: prevStatus,
			ActorName:      sess.Name(),
		})
	}
	if histErr != nil {
		return nil, histErr
	}
	return &next, nil
}

// recordHistory appends the audit rows. A failure leaves the complaint row
// updated and is reported to the caller as ErrHistoryWrite.
func (s *Service) recordHistory(ctx context.Context, sess auth.Session, complaintID string, changes []fieldChange, at time.Time) error {
	for i, ch := range changes {
		entry := &models.ChangeHistory{
			ComplaintID: complaintID,
			FieldName:   ch.Field,
			OldValue:    ch.Old,
			NewValue:    ch.New,
			ActorID:     sess.ActorID,
			CreatedAt:   at,
		}
		if err := s.Storage.AppendHistory(ctx, entry); err != nil {
			metrics.HistoryWriteFailureTotal.Inc()
			s.log.Error("change history write failed after update",
				zap.String("complaint_id", complaintID),
				zap.String("field", ch.Field),
				zap.Int("written", i),
				zap.Int("expected", len(changes)),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %s: %w", ErrHistoryWrite, ch.Field, err)
		}
	}
	return nil
}

// Delete removes a complaint permanently. Its change history is kept.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id string) error {
	if !sess.Privileged() {
		return ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if err := s.Storage.DeleteComplaint(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("complaint: delete %s: %w", id, err)
	}
	metrics.ComplaintDeletedTotal.Inc()
	s.log.Info("complaint deleted", zap.String("complaint_id", id), zap.String("actor", sess.ActorID))
	s.publish(ctx, models.LiveEvent{
		Type:        models.EventComplaintDeleted,
		ComplaintID: id,
		ActorID:     sess.ActorID,
		At:          s.now(),
	})
	return nil
}

// BulkFailure is one id a bulk delete could not remove.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkDeleteResult reports the outcome per id.
type BulkDeleteResult struct {
	Deleted []string      `json:"deleted"`
	Failed  []BulkFailure `json:"failed"`
}

// BulkDelete removes many complaints in one statement. Ids that are malformed
// or do not exist are listed in Failed; the rest are deleted.
func (s *Service) BulkDelete(ctx context.Context, sess auth.Session, ids []string) (*BulkDeleteResult, error) {
	if !sess.Privileged() {
		return nil, ErrForbidden
	}

	res := &BulkDeleteResult{Deleted: []string{}, Failed: []BulkFailure{}}
	seen := make(map[string]bool, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := uuid.Parse(id); err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Reason: "invalid id"})
			continue
		}
		valid = append(valid, id)
	}
	if len(valid)+len(res.Failed) > config.MaxBulkDeleteIDs {
		return nil, invalid("ids", fmt.Sprintf("at most %d ids per request", config.MaxBulkDeleteIDs))
	}
	if len(valid) == 0 {
		return res, nil
	}

	deleted, err := s.Storage.DeleteComplaints(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("complaint: bulk delete: %w", err)
	}
	gone := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	now := s.now()
	for _, id := range valid {
		if !gone[id] {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Reason: "not found"})
			continue
		}
		res.Deleted = append(res.Deleted, id)
		s.publish(ctx, models.LiveEvent{Type: models.EventComplaintDeleted, ComplaintID: id, ActorID: sess.ActorID, At: now})
	}
	metrics.ComplaintDeletedTotal.Add(float64(len(res.Deleted)))
	s.log.Info("complaints bulk deleted",
		zap.Int("deleted", len(res.Deleted)),
		zap.Int("failed", len(res.Failed)),
		zap.String("actor", sess.ActorID),
	)
	return res, nil
}

func (s *Service) publish(ctx context.Context, ev models.LiveEvent) {
	if err := s.Storage.PublishEvent(ctx, ev); err != nil {
		s.log.Warn("publish live event", zap.String("type", ev.Type), zap.String("complaint_id", ev.ComplaintID), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, n models.Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.log.Warn("notification not queued",
			zap.String("kind", string(n.Kind)),
			zap.String("complaint_id", n.Complaint.ID),
			zap.Error(err),
		)
	}
}
