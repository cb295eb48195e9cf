package complaint_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/storage/storagemock"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// memStore keeps complaints and history in memory. Methods it does not
// override fall through to the embedded testify mock.
type memStore struct {
	storagemock.MockStorage

	mu          sync.Mutex
	complaints  map[string]models.Complaint
	history     []models.ChangeHistory
	events      []models.LiveEvent
	idempotency map[string]string

	failHistoryAfter int // fail the n-th AppendHistory call (1-based); 0 never fails
	historyCalls     int
	failUpdate       error
}

func newMemStore() *memStore {
	return &memStore{
		complaints:  map[string]models.Complaint{},
		idempotency: map[string]string{},
	}
}

func (s *memStore) CreateComplaint(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := c.BeforeCreate(nil); err != nil {
		return err
	}
	s.complaints[c.ID] = *c
	return nil
}

func (s *memStore) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) ListComplaints(_ context.Context, f storage.ComplaintFilter) ([]models.Complaint, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *memStore) UpdateComplaint(_ context.Context, c *models.Complaint, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	cur, ok := s.complaints[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return storage.ErrConflict
	}
	c.Version = expectedVersion + 1
	s.complaints[c.ID] = *c
	return nil
}

func (s *memStore) DeleteComplaint(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.complaints, id)
	return nil
}

func (s *memStore) DeleteComplaints(_ context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []string
	for _, id := range ids {
		if _, ok := s.complaints[id]; ok {
			delete(s.complaints, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (s *memStore) AppendHistory(_ context.Context, entry *models.ChangeHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	if s.failHistoryAfter > 0 && s.historyCalls == s.failHistoryAfter {
		return errors.New("history table unavailable")
	}
	if err := entry.BeforeCreate(nil); err != nil {
		return err
	}
	s.history = append(s.history, *entry)
	return nil
}

func (s *memStore) ListHistory(_ context.Context, complaintID string) ([]models.ChangeHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChangeHistory
	for _, h := range s.history {
		if h.ComplaintID == complaintID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memStore) ClaimIdempotencyKey(_ context.Context, key, complaintID string, _ time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.idempotency[key]; ok {
		return owner, false, nil
	}
	s.idempotency[key] = complaintID
	return complaintID, true, nil
}

func (s *memStore) ReleaseIdempotencyKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.idempotency, key)
	return nil
}

func (s *memStore) PublishEvent(_ context.Context, ev models.LiveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) stored(id string) models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complaints[id]
}
