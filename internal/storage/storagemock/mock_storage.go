// Package storagemock provides a testify mock of storage.Storage for package tests.
package storagemock

import (
	"context"
	"time"

	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) ListComplaints(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, int64, error) {
	args := m.Called(ctx, f)
	var list []models.Complaint
	if v := args.Get(0); v != nil {
		list = v.([]models.Complaint)
	}
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int) error {
	args := m.Called(ctx, c, expectedVersion)
	err := args.Error(0)
	if err == nil {
		c.Version = expectedVersion + 1
	}
	return err
}

func (m *MockStorage) DeleteComplaint(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) DeleteComplaints(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	var deleted []string
	if v := args.Get(0); v != nil {
		deleted = v.([]string)
	}
	return deleted, args.Error(1)
}

func (m *MockStorage) AppendHistory(ctx context.Context, entry *models.ChangeHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStorage) ListHistory(ctx context.Context, complaintID string) ([]models.ChangeHistory, error) {
	args := m.Called(ctx, complaintID)
	var out []models.ChangeHistory
	if v := args.Get(0); v != nil {
		out = v.([]models.ChangeHistory)
	}
	return out, args.Error(1)
}

func (m *MockStorage) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	args := m.Called(ctx)
	var out []models.Priority
	if v := args.Get(0); v != nil {
		out = v.([]models.Priority)
	}
	return out, args.Error(1)
}

func (m *MockStorage) SavePriority(ctx context.Context, p *models.Priority) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) DeletePriority(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) ListAssignees(ctx context.Context) ([]models.Assignee, error) {
	args := m.Called(ctx)
	var out []models.Assignee
	if v := args.Get(0); v != nil {
		out = v.([]models.Assignee)
	}
	return out, args.Error(1)
}

func (m *MockStorage) SaveAssignee(ctx context.Context, a *models.Assignee) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStorage) DeleteAssignee(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) ListLocations(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	var out []models.Location
	if v := args.Get(0); v != nil {
		out = v.([]models.Location)
	}
	return out, args.Error(1)
}

func (m *MockStorage) SaveLocation(ctx context.Context, l *models.Location) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockStorage) DeleteLocation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) ListTemplates(ctx context.Context) ([]models.ResponseTemplate, error) {
	args := m.Called(ctx)
	var out []models.ResponseTemplate
	if v := args.Get(0); v != nil {
		out = v.([]models.ResponseTemplate)
	}
	return out, args.Error(1)
}

func (m *MockStorage) SaveTemplate(ctx context.Context, t *models.ResponseTemplate) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockStorage) DeleteTemplate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStorage) ListFeedbacks(ctx context.Context, limit, offset int) ([]models.Feedback, error) {
	args := m.Called(ctx, limit, offset)
	var out []models.Feedback
	if v := args.Get(0); v != nil {
		out = v.([]models.Feedback)
	}
	return out, args.Error(1)
}

func (m *MockStorage) CreateSurvey(ctx context.Context, s *models.Survey) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStorage) ListSurveys(ctx context.Context, name string, limit, offset int) ([]models.Survey, error) {
	args := m.Called(ctx, name, limit, offset)
	var out []models.Survey
	if v := args.Get(0); v != nil {
		out = v.([]models.Survey)
	}
	return out, args.Error(1)
}

func (m *MockStorage) ClaimIdempotencyKey(ctx context.Context, key, complaintID string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, complaintID, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockStorage) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) PublishEvent(ctx context.Context, ev models.LiveEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockStorage) SubscribeEvents(ctx context.Context) *redis.PubSub {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}
