package storage

import (
	"context"
	"fmt"

	"complaintdesk/backend/internal/models"

	"gorm.io/gorm"
)

func listRows[T any](ctx context.Context, db *gorm.DB, order string) ([]T, error) {
	var rows []T
	if err := db.WithContext(ctx).Order(order).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func deleteRow[T any](ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPriorities returns priorities, most urgent first.
func (s *Service) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	rows, err := listRows[models.Priority](ctx, s.DB, "level asc, name asc")
	if err != nil {
		return nil, fmt.Errorf("storage: list priorities: %w", err)
	}
	return rows, nil
}

// SavePriority inserts p, or overwrites it when p.ID already exists.
func (s *Service) SavePriority(ctx context.Context, p *models.Priority) error {
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("storage: save priority: %w", err)
	}
	return nil
}

func (s *Service) DeletePriority(ctx context.Context, id string) error {
	return deleteRow[models.Priority](ctx, s.DB, id)
}

func (s *Service) ListAssignees(ctx context.Context) ([]models.Assignee, error) {
	rows, err := listRows[models.Assignee](ctx, s.DB, "name asc")
	if err != nil {
		return nil, fmt.Errorf("storage: list assignees: %w", err)
	}
	return rows, nil
}

func (s *Service) SaveAssignee(ctx context.Context, a *models.Assignee) error {
	if err := s.DB.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("storage: save assignee: %w", err)
	}
	return nil
}

func (s *Service) DeleteAssignee(ctx context.Context, id string) error {
	return deleteRow[models.Assignee](ctx, s.DB, id)
}

func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := listRows[models.Location](ctx, s.DB, "name asc")
	if err != nil {
		return nil, fmt.Errorf("storage: list locations: %w", err)
	}
	return rows, nil
}

func (s *Service) SaveLocation(ctx context.Context, l *models.Location) error {
	if err := s.DB.WithContext(ctx).Save(l).Error; err != nil {
		return fmt.Errorf("storage: save location: %w", err)
	}
	return nil
}

func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	return deleteRow[models.Location](ctx, s.DB, id)
}

func (s *Service) ListTemplates(ctx context.Context) ([]models.ResponseTemplate, error) {
	rows, err := listRows[models.ResponseTemplate](ctx, s.DB, "title asc")
	if err != nil {
		return nil, fmt.Errorf("storage: list response templates: %w", err)
	}
	return rows, nil
}

func (s *Service) SaveTemplate(ctx context.Context, t *models.ResponseTemplate) error {
	if err := s.DB.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("storage: save response template: %w", err)
	}
	return nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return deleteRow[models.ResponseTemplate](ctx, s.DB, id)
}

func (s *Service) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if err := s.DB.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("storage: create feedback: %w", err)
	}
	return nil
}

func (s *Service) ListFeedbacks(ctx context.Context, limit, offset int) ([]models.Feedback, error) {
	limit, offset = pageBounds(limit, offset)
	var out []models.Feedback
	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list feedbacks: %w", err)
	}
	return out, nil
}

func (s *Service) CreateSurvey(ctx context.Context, sv *models.Survey) error {
	if err := s.DB.WithContext(ctx).Create(sv).Error; err != nil {
		return fmt.Errorf("storage: create survey: %w", err)
	}
	return nil
}

// ListSurveys returns survey submissions, optionally only those of one named survey.
func (s *Service) ListSurveys(ctx context.Context, name string, limit, offset int) ([]models.Survey, error) {
	limit, offset = pageBounds(limit, offset)
	q := s.DB.WithContext(ctx).Order("created_at desc")
	if name != "" {
		q = q.Where("survey_name = ?", name)
	}
	var out []models.Survey
	if err := q.Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("storage: list surveys: %w", err)
	}
	return out, nil
}
