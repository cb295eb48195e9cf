package storage

import (
	"context"
	"errors"
	"time"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrConflict is returned when a conditional update lost against a newer version.
	ErrConflict = errors.New("storage: version conflict")
)

// EventsChannel is the Redis pub/sub channel carrying committed complaint changes.
const EventsChannel = "complaint_events"

// ComplaintFilter narrows ListComplaints. Zero values mean "no restriction".
type ComplaintFilter struct {
	Statuses   []models.Status
	Category   string
	LocationID string
	PriorityID string
	AssigneeID string
	Search     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

type Storage interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, int64, error)
	UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int) error
	DeleteComplaint(ctx context.Context, id string) error
	DeleteComplaints(ctx context.Context, ids []string) ([]string, error)

	AppendHistory(ctx context.Context, entry *models.ChangeHistory) error
	ListHistory(ctx context.Context, complaintID string) ([]models.ChangeHistory, error)

	ListPriorities(ctx context.Context) ([]models.Priority, error)
	SavePriority(ctx context.Context, p *models.Priority) error
	DeletePriority(ctx context.Context, id string) error
	ListAssignees(ctx context.Context) ([]models.Assignee, error)
	SaveAssignee(ctx context.Context, a *models.Assignee) error
	DeleteAssignee(ctx context.Context, id string) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	SaveLocation(ctx context.Context, l *models.Location) error
	DeleteLocation(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]models.ResponseTemplate, error)
	SaveTemplate(ctx context.Context, t *models.ResponseTemplate) error
	DeleteTemplate(ctx context.Context, id string) error

	CreateFeedback(ctx context.Context, f *models.Feedback) error
	ListFeedbacks(ctx context.Context, limit, offset int) ([]models.Feedback, error)
	CreateSurvey(ctx context.Context, s *models.Survey) error
	ListSurveys(ctx context.Context, name string, limit, offset int) ([]models.Survey, error)

	ClaimIdempotencyKey(ctx context.Context, key, complaintID string, ttl time.Duration) (string, bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PublishEvent(ctx context.Context, ev models.LiveEvent) error
	SubscribeEvents(ctx context.Context) *redis.PubSub
}

// Service is the PostgreSQL + Redis implementation of Storage.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates every table the service owns.
func (s *Service) Migrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(
		&models.Complaint{},
		&models.ChangeHistory{},
		&models.Priority{},
		&models.Assignee{},
		&models.Location{},
		&models.ResponseTemplate{},
		&models.Feedback{},
		&models.Survey{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
