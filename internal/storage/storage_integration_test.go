//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func startStore(t *testing.T) *storage.Service {
	t.Helper()
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("complaints"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	s := storage.NewStorageService(db, nil)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func newComplaint(desc string) *models.Complaint {
	now := time.Now().UTC()
	return &models.Complaint{
		Description: desc,
		Category:    "facilities",
		Status:      models.StatusNew,
		Attachments: []models.FileAttachment{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestService_ComplaintRoundTrip(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	rating := 4
	c := newComplaint("Broken light")
	c.Rating = &rating
	c.Attachments = []models.FileAttachment{{ID: "a1", Name: "p.jpg", URL: "https://cdn/p.jpg", MimeType: "image/jpeg", Size: 3}}
	require.NoError(t, s.CreateComplaint(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, 4, *got.Rating)
	assert.Nil(t, got.Response)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "https://cdn/p.jpg", got.Attachments[0].URL)
}

func TestService_UpdateComplaint_VersionCheck(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	c := newComplaint("Cold water")
	require.NoError(t, s.CreateComplaint(ctx, c))

	c.Status = models.StatusProcessing
	c.Response = &models.ComplaintResponse{Text: "On it", AdminName: "Ivan", RespondedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateComplaint(ctx, c, 1))
	assert.Equal(t, 2, c.Version)

	stale := *c
	stale.Status = models.StatusRejected
	err := s.UpdateComplaint(ctx, &stale, 1)
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)
	require.NotNil(t, got.Response)
	assert.Equal(t, "Ivan", got.Response.AdminName)

	got.Response = nil
	require.NoError(t, s.UpdateComplaint(ctx, got, got.Version))
	reloaded, err := s.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Response)

	missing := newComplaint("ghost")
	missing.ID = "6f1d1b8e-1c4e-4a49-9f44-6f3c0f0f0f0f"
	assert.ErrorIs(t, s.UpdateComplaint(ctx, missing, 1), storage.ErrNotFound)
}

func TestService_DeleteAndBulkDelete(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	a, b := newComplaint("a"), newComplaint("b")
	require.NoError(t, s.CreateComplaint(ctx, a))
	require.NoError(t, s.CreateComplaint(ctx, b))

	require.NoError(t, s.DeleteComplaint(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteComplaint(ctx, a.ID), storage.ErrNotFound)

	deleted, err := s.DeleteComplaints(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, deleted)

	list, total, err := s.ListComplaints(ctx, storage.ComplaintFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestService_HistoryOrderSurvivesDelete(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	c := newComplaint("Loud music")
	require.NoError(t, s.CreateComplaint(ctx, c))

	at := time.Now().UTC()
	oldStatus, newStatus, text := "processing", "resolved", "Fixed"
	require.NoError(t, s.AppendHistory(ctx, &models.ChangeHistory{ComplaintID: c.ID, FieldName: models.FieldStatus, OldValue: &oldStatus, NewValue: &newStatus, ActorID: "admin", CreatedAt: at}))
	require.NoError(t, s.AppendHistory(ctx, &models.ChangeHistory{ComplaintID: c.ID, FieldName: models.FieldResponse, NewValue: &text, ActorID: "admin", CreatedAt: at}))
	require.NoError(t, s.DeleteComplaint(ctx, c.ID))

	history, err := s.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.FieldStatus, history[0].FieldName)
	assert.Equal(t, models.FieldResponse, history[1].FieldName)
	assert.Nil(t, history[1].OldValue)
}

func TestService_ListComplaintsFilter(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	for i, desc := range []string{"Broken light", "Dirty pool", "Broken locker"} {
		c := newComplaint(desc)
		c.CreatedAt = c.CreatedAt.Add(time.Duration(i) * time.Second)
		if i == 1 {
			c.Category = "cleanliness"
		}
		require.NoError(t, s.CreateComplaint(ctx, c))
	}

	list, total, err := s.ListComplaints(ctx, storage.ComplaintFilter{Search: "broken", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Broken locker", list[0].Description, "newest first")

	list, _, err = s.ListComplaints(ctx, storage.ComplaintFilter{Category: "cleanliness", Statuses: []models.Status{models.StatusNew}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dirty pool", list[0].Description)
}

func TestService_ReferenceData(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePriority(ctx, &models.Priority{Name: "Low", Level: 3}))
	require.NoError(t, s.SavePriority(ctx, &models.Priority{Name: "Urgent", Level: 1}))
	priorities, err := s.ListPriorities(ctx)
	require.NoError(t, err)
	require.Len(t, priorities, 2)
	assert.Equal(t, "Urgent", priorities[0].Name)

	a := &models.Assignee{Name: "Olena", Categories: []string{"cleanliness", "staff"}, Active: true}
	require.NoError(t, s.SaveAssignee(ctx, a))
	assignees, err := s.ListAssignees(ctx)
	require.NoError(t, err)
	require.Len(t, assignees, 1)
	assert.ElementsMatch(t, []string{"cleanliness", "staff"}, []string(assignees[0].Categories))

	require.NoError(t, s.DeleteAssignee(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAssignee(ctx, a.ID), storage.ErrNotFound)

	require.NoError(t, s.CreateSurvey(ctx, &models.Survey{SurveyName: "visit", Answers: []byte(`{"q1":"yes"}`)}))
	surveys, err := s.ListSurveys(ctx, "visit", 0, 0)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.JSONEq(t, `{"q1":"yes"}`, string(surveys[0].Answers))
}
