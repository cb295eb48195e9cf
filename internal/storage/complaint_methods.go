package storage

import (
	"context"
	"fmt"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateComplaint inserts c; ID is assigned by the model hook when empty.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("storage: create complaint: %w", err)
	}
	return nil
}

func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListComplaints returns one page of complaints, newest first, plus the total
// number of rows matching the filter.
func (s *Service) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, int64, error) {
	q := applyComplaintFilter(s.DB.WithContext(ctx).Model(&models.Complaint{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("storage: count complaints: %w", err)
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	var out []models.Complaint
	err := q.Order("created_at desc").Order("id").Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list complaints: %w", err)
	}
	return out, total, nil
}

func applyComplaintFilter(q *gorm.DB, f ComplaintFilter) *gorm.DB {
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.LocationID != "" {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.PriorityID != "" {
		q = q.Where("priority_id = ?", f.PriorityID)
	}
	if f.AssigneeID != "" {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	return q
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// UpdateComplaint writes every column of c, but only if the stored row still
// carries expectedVersion. On success c.Version is the new version.
func (s *Service) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int) error {
	c.Version = expectedVersion + 1
	res := s.DB.WithContext(ctx).
		Model(c).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(c)
	if res.Error != nil {
		c.Version = expectedVersion
		return fmt.Errorf("storage: update complaint %s: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	c.Version = expectedVersion
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("storage: update complaint %s: %w", c.ID, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *Service) DeleteComplaint(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Complaint{})
	if res.Error != nil {
		return fmt.Errorf("storage: delete complaint %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComplaints removes all listed complaints in one statement and returns
// the ids that actually existed.
func (s *Service) DeleteComplaints(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var removed []models.Complaint
	err := s.DB.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ?", ids).
		Delete(&removed).Error
	if err != nil {
		return nil, fmt.Errorf("storage: bulk delete complaints: %w", err)
	}
	deleted := make([]string, 0, len(removed))
	for _, c := range removed {
		deleted = append(deleted, c.ID)
	}
	return deleted, nil
}

// AppendHistory inserts one audit row. Rows are never updated afterwards.
func (s *Service) AppendHistory(ctx context.Context, entry *models.ChangeHistory) error {
	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("storage: append history for %s: %w", entry.ComplaintID, err)
	}
	return nil
}

// ListHistory returns the audit trail of a complaint in commit order. The trail
// is still available after the complaint itself was deleted.
func (s *Service) ListHistory(ctx context.Context, complaintID string) ([]models.ChangeHistory, error) {
	var history []models.ChangeHistory
	err := s.DB.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at asc").
		Order("seq asc").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list history for %s: %w", complaintID, err)
	}
	return history, nil
}
