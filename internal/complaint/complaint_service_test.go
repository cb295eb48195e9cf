package complaint_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/storage/storagemock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin = auth.Admin("ivan", "Ivan")
	anon  = auth.Anonymous()
	t0    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// newTestService wires the service to an in-memory store with a clock that
// advances one second per call.
func newTestService(t *testing.T) (*complaint.Service, *memStore, *MockNotifier) {
	t.Helper()
	store := newMemStore()
	notifier := new(MockNotifier)
	svc := complaint.NewService(store, notifier, nil)
	clock := t0
	svc.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return svc, store, notifier
}

func submit(t *testing.T, svc *complaint.Service) *models.Complaint {
	t.Helper()
	c, _, err := svc.Submit(context.Background(), anon, complaint.SubmitInput{
		Description: "Broken light",
		Category:    "facilities",
		Rating:      intPtr(4),
	})
	require.NoError(t, err)
	return c
}

func TestSubmit_ForcesStatusNew(t *testing.T) {
	svc, store, notifier := newTestService(t)

	c, replayed, err := svc.Submit(context.Background(), anon, complaint.SubmitInput{
		Description: "Broken light",
		Category:    "facilities",
		Status:      "resolved",
		Rating:      intPtr(4),
	})

	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, models.StatusNew, c.Status)
	require.NotNil(t, c.Rating)
	assert.Equal(t, 4, *c.Rating)
	assert.Nil(t, c.Response)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	stored := store.stored(c.ID)
	assert.Equal(t, models.StatusNew, stored.Status)

	history, _ := store.ListHistory(context.Background(), c.ID)
	assert.Empty(t, history, "creation is not a tracked change")

	require.Len(t, store.events, 1)
	assert.Equal(t, models.EventComplaintCreated, store.events[0].Type)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    complaint.SubmitInput
		field string
	}{
		{"empty description", complaint.SubmitInput{Description: "   ", Category: "facilities"}, "description"},
		{"unknown category", complaint.SubmitInput{Description: "x", Category: "weather"}, "category"},
		{"rating too low", complaint.SubmitInput{Description: "x", Category: "staff", Rating: intPtr(0)}, "rating"},
		{"rating too high", complaint.SubmitInput{Description: "x", Category: "staff", Rating: intPtr(6)}, "rating"},
		{"bad email", complaint.SubmitInput{Description: "x", Category: "staff", ContactEmail: "nope"}, "contact_email"},
		{"bad location", complaint.SubmitInput{Description: "x", Category: "staff", LocationID: "pool"}, "location_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)

			_, _, err := svc.Submit(context.Background(), anon, tt.in)

			require.ErrorIs(t, err, complaint.ErrValidation)
			var verr *complaint.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, store.complaints)
		})
	}
}

func TestSubmit_DropsAttachmentsWithoutURL(t *testing.T) {
	svc, store, _ := newTestService(t)

	c, _, err := svc.Submit(context.Background(), anon, complaint.SubmitInput{
		Description: "Leaking shower",
		Category:    "facilities",
		Attachments: []models.FileAttachment{
			{Name: "leak.jpg", URL: "https://files.example/leak.jpg", MimeType: "image/jpeg", Size: 2048},
			{Name: "lost.jpg", MimeType: "image/jpeg", Size: 1024},
		},
	})

	require.NoError(t, err)
	assert.Len(t, store.stored(c.ID).Attachments, 1)
	assert.Equal(t, "leak.jpg", store.stored(c.ID).Attachments[0].Name)
}

func TestSubmit_AdminSubmissionNotifies(t *testing.T) {
	svc, _, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Kind == models.NotificationNewComplaint && n.ActorName == "Ivan"
	})).Return(nil).Once()

	_, _, err := svc.Submit(context.Background(), admin, complaint.SubmitInput{Description: "Noise", Category: "staff"})

	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestSubmit_IdempotencyKeyReplays(t *testing.T) {
	svc, store, _ := newTestService(t)
	in := complaint.SubmitInput{Description: "Broken locker", Category: "equipment", IdempotencyKey: "k-1"}

	first, replayed, err := svc.Submit(context.Background(), anon, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := svc.Submit(context.Background(), anon, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.complaints, 1)
}

func TestResolveScenario_RecordsHistory(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	c := submit(t, svc)

	c, err := svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, c.Status)

	c, err = svc.AttachResponse(ctx, admin, c.ID, "Fixed", "Ivan", complaint.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, c.Status)
	require.NotNil(t, c.Response)
	assert.Equal(t, "Fixed", c.Response.Text)
	assert.Equal(t, "Ivan", c.Response.AdminName)
	assert.Equal(t, c.UpdatedAt, c.Response.RespondedAt)
	assert.Equal(t, 3, c.Version)

	history, err := svc.History(ctx, admin, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, models.FieldStatus, history[0].FieldName)
	assert.Equal(t, strPtr("new"), history[0].OldValue)
	assert.Equal(t, strPtr("processing"), history[0].NewValue)

	assert.Equal(t, models.FieldStatus, history[1].FieldName)
	assert.Equal(t, strPtr("processing"), history[1].OldValue)
	assert.Equal(t, strPtr("resolved"), history[1].NewValue)

	assert.Equal(t, models.FieldResponse, history[2].FieldName)
	assert.Nil(t, history[2].OldValue)
	assert.Equal(t, strPtr("Fixed"), history[2].NewValue)

	for _, h := range history {
		assert.Equal(t, "ivan", h.ActorID)
	}
	assert.Equal(t, models.StatusResolved, store.stored(c.ID).Status)
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestDeleteResponse_DemotesToProcessing(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	c := submit(t, svc)
	_, err := svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{})
	require.NoError(t, err)
	_, err = svc.AttachResponse(ctx, admin, c.ID, "Fixed", "Ivan", complaint.UpdateOptions{})
	require.NoError(t, err)
	before := len(store.history)

	c, err = svc.DeleteResponse(ctx, admin, c.ID, complaint.UpdateOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, c.Status)
	assert.Nil(t, c.Response)
	assert.Nil(t, store.stored(c.ID).Response)

	added := store.history[before:]
	var responseRows []models.ChangeHistory
	for _, h := range added {
		if h.FieldName == models.FieldResponse {
			responseRows = append(responseRows, h)
		}
	}
	require.Len(t, responseRows, 1)
	assert.Equal(t, strPtr("Fixed"), responseRows[0].OldValue)
	assert.Nil(t, responseRows[0].NewValue)

	_, err = svc.DeleteResponse(ctx, admin, c.ID, complaint.UpdateOptions{})
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition, "nothing left to delete")
}

func TestTextLimits_CountCharacters(t *testing.T) {
	ctx := context.Background()

	t.Run("description", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		atLimit := strings.Repeat("ж", config.MaxDescriptionLength)

		_, _, err := svc.Submit(ctx, anon, complaint.SubmitInput{Description: atLimit, Category: "facilities"})
		require.NoError(t, err)

		_, _, err = svc.Submit(ctx, anon, complaint.SubmitInput{Description: atLimit + "ж", Category: "facilities"})
		var verr *complaint.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "description", verr.Field)
	})

	t.Run("title", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		atLimit := strings.Repeat("ї", config.MaxTitleLength)

		_, _, err := svc.Submit(ctx, anon, complaint.SubmitInput{Title: atLimit, Description: "x", Category: "staff"})
		require.NoError(t, err)

		_, _, err = svc.Submit(ctx, anon, complaint.SubmitInput{Title: atLimit + "ї", Description: "x", Category: "staff"})
		assert.ErrorIs(t, err, complaint.ErrValidation)
	})

	t.Run("response", func(t *testing.T) {
		svc, store, notifier := newTestService(t)
		notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
		c := submit(t, svc)
		_, err := svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{})
		require.NoError(t, err)
		atLimit := strings.Repeat("щ", config.MaxResponseLength)

		_, err = svc.AttachResponse(ctx, admin, c.ID, atLimit+"щ", "Іван", complaint.UpdateOptions{})
		require.ErrorIs(t, err, complaint.ErrValidation)
		assert.Nil(t, store.stored(c.ID).Response)

		got, err := svc.AttachResponse(ctx, admin, c.ID, atLimit, "Іван", complaint.UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, got.Status)
	})
}

func TestAttachResponse_RejectsEmptyFields(t *testing.T) {
	tests := []struct {
		name, text, adminName string
	}{
		{"empty text", "", "Ivan"},
		{"blank text", "  ", "Ivan"},
		{"empty admin", "Fixed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, notifier := newTestService(t)
			notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
			c := submit(t, svc)
			_, err := svc.TakeIntoWork(context.Background(), admin, c.ID, complaint.UpdateOptions{})
			require.NoError(t, err)
			historyBefore := len(store.history)

			_, err = svc.AttachResponse(context.Background(), admin, c.ID, tt.text, tt.adminName, complaint.UpdateOptions{})

			assert.ErrorIs(t, err, complaint.ErrValidation)
			assert.Equal(t, models.StatusProcessing, store.stored(c.ID).Status)
			assert.Nil(t, store.stored(c.ID).Response)
			assert.Len(t, store.history, historyBefore)
		})
	}
}

func TestTransitions_Guards(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	none := complaint.UpdateOptions{}

	c := submit(t, svc)
	_, err := svc.AttachResponse(ctx, admin, c.ID, "Fixed", "Ivan", none)
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition, "new cannot be resolved directly")

	_, err = svc.Reopen(ctx, admin, c.ID, none)
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition)

	c, err = svc.Reject(ctx, admin, c.ID, none)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, c.Status)

	_, err = svc.TakeIntoWork(ctx, admin, c.ID, none)
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition)

	c, err = svc.Reopen(ctx, admin, c.ID, none)
	require.NoError(t, err, "rejected without a response can be reopened")
	assert.Equal(t, models.StatusProcessing, c.Status)

	c, err = svc.AttachResponse(ctx, admin, c.ID, "Done", "Ivan", none)
	require.NoError(t, err)
	_, err = svc.Reopen(ctx, admin, c.ID, none)
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition, "resolved with a response stays resolved")
	assert.Equal(t, models.StatusResolved, store.stored(c.ID).Status)

	_, err = svc.SetStatus(ctx, admin, c.ID, "closed", none)
	assert.ErrorIs(t, err, complaint.ErrInvalidTransition)
	_, err = svc.SetStatus(ctx, admin, c.ID, "archived", none)
	assert.ErrorIs(t, err, complaint.ErrValidation)
}

func TestSetStatus_InProgressAlias(t *testing.T) {
	svc, _, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	c := submit(t, svc)

	c, err := svc.SetStatus(context.Background(), admin, c.ID, "in_progress", complaint.UpdateOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, c.Status)
}

func TestPrivilegedOperations_RequireAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c := submit(t, svc)
	none := complaint.UpdateOptions{}
	fakeAdmin := auth.Session{IsAdmin: true}

	for _, sess := range []auth.Session{anon, fakeAdmin} {
		_, err := svc.TakeIntoWork(ctx, sess, c.ID, none)
		assert.ErrorIs(t, err, complaint.ErrForbidden)
		_, err = svc.AttachResponse(ctx, sess, c.ID, "x", "y", none)
		assert.ErrorIs(t, err, complaint.ErrForbidden)
		_, err = svc.Get(ctx, sess, c.ID)
		assert.ErrorIs(t, err, complaint.ErrForbidden)
		_, _, err = svc.List(ctx, sess, storage.ComplaintFilter{})
		assert.ErrorIs(t, err, complaint.ErrForbidden)
		assert.ErrorIs(t, svc.Delete(ctx, sess, c.ID), complaint.ErrForbidden)
		_, err = svc.BulkDelete(ctx, sess, []string{c.ID})
		assert.ErrorIs(t, err, complaint.ErrForbidden)
	}
}

func TestHistoryWriteFailure_ReportsErrorAfterUpdate(t *testing.T) {
	svc, store, notifier := newTestService(t)
	c := submit(t, svc)
	store.failHistoryAfter = 1
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Kind == models.NotificationStatusUpdate &&
			n.PreviousStatus == models.StatusNew &&
			n.Complaint.Status == models.StatusProcessing
	})).Return(nil).Once()

	_, err := svc.TakeIntoWork(context.Background(), admin, c.ID, complaint.UpdateOptions{})

	require.ErrorIs(t, err, complaint.ErrHistoryWrite)
	assert.Equal(t, models.StatusProcessing, store.stored(c.ID).Status, "the row update is not rolled back")
	assert.Empty(t, store.history)
	notifier.AssertExpectations(t)
}

func TestNotificationFailure_IsSwallowed(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("queue full"))
	c := submit(t, svc)

	c, err := svc.TakeIntoWork(context.Background(), admin, c.ID, complaint.UpdateOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, store.stored(c.ID).Status)
}

func TestConflict(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	c := submit(t, svc)

	_, err := svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{ExpectedVersion: 7})
	assert.ErrorIs(t, err, complaint.ErrConflict)
	assert.Equal(t, models.StatusNew, store.stored(c.ID).Status)

	store.failUpdate = storage.ErrConflict
	_, err = svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{ExpectedVersion: 1})
	assert.ErrorIs(t, err, complaint.ErrConflict)
	assert.Empty(t, store.history)

	store.failUpdate = nil
	updated, err := svc.TakeIntoWork(ctx, admin, c.ID, complaint.UpdateOptions{ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
}

func TestSetPriorityAndAssignee(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	c := submit(t, svc)
	priority := uuid.New().String()

	c, err := svc.SetPriority(ctx, admin, c.ID, priority, complaint.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, &priority, c.PriorityID)

	_, err = svc.SetPriority(ctx, admin, c.ID, priority, complaint.UpdateOptions{})
	require.NoError(t, err)
	assert.Len(t, store.history, 1, "setting the same value is not a change")
	assert.Nil(t, store.history[0].OldValue)
	assert.Equal(t, &priority, store.history[0].NewValue)

	_, err = svc.SetAssignee(ctx, admin, c.ID, "someone", complaint.UpdateOptions{})
	assert.ErrorIs(t, err, complaint.ErrValidation)

	c, err = svc.SetPriority(ctx, admin, c.ID, "", complaint.UpdateOptions{})
	require.NoError(t, err)
	assert.Nil(t, c.PriorityID)
	require.Len(t, store.history, 2)
	assert.Nil(t, store.history[1].NewValue)
}

func TestDelete_SecondDeleteReportsNotFound(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	c := submit(t, svc)

	require.NoError(t, svc.Delete(ctx, admin, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, c.ID), complaint.ErrNotFound)

	list, _, err := svc.List(ctx, admin, storage.ComplaintFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, models.EventComplaintDeleted, store.events[len(store.events)-1].Type)
}

func TestBulkDelete_ReportsFailures(t *testing.T) {
	svc, store, _ := newTestService(t)
	a, b := submit(t, svc), submit(t, svc)
	missing := uuid.New().String()

	res, err := svc.BulkDelete(context.Background(), admin, []string{a.ID, "junk", b.ID, a.ID, "", missing})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, res.Deleted)
	assert.ElementsMatch(t, []complaint.BulkFailure{
		{ID: "junk", Reason: "invalid id"},
		{ID: missing, Reason: "not found"},
	}, res.Failed)
	assert.Empty(t, store.complaints)
}

func TestBulkDelete_GatewayErrorDeletesNothing(t *testing.T) {
	store := new(storagemock.MockStorage)
	svc := complaint.NewService(store, nil, nil)
	id := uuid.New().String()
	store.On("DeleteComplaints", mock.Anything, []string{id}).Return(nil, errors.New("connection reset"))

	_, err := svc.BulkDelete(context.Background(), admin, []string{id})

	require.Error(t, err)
	store.AssertExpectations(t)
}

func TestListAll_WalksPages(t *testing.T) {
	store := new(storagemock.MockStorage)
	svc := complaint.NewService(store, nil, nil)
	first := make([]models.Complaint, 500)
	second := []models.Complaint{{ID: "last"}}
	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f storage.ComplaintFilter) bool { return f.Offset == 0 && f.Limit == 500 })).
		Return(first, int64(501), nil).Once()
	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f storage.ComplaintFilter) bool { return f.Offset == 500 })).
		Return(second, int64(501), nil).Once()

	all, err := svc.ListAll(context.Background(), admin, storage.ComplaintFilter{Limit: 10, Offset: 30})

	require.NoError(t, err)
	assert.Len(t, all, 501)
	assert.Equal(t, "last", all[500].ID)
	store.AssertExpectations(t)
}

func TestGet_UnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), admin, "not-a-uuid")
	assert.ErrorIs(t, err, complaint.ErrNotFound)

	_, err = svc.Get(context.Background(), admin, uuid.New().String())
	assert.ErrorIs(t, err, complaint.ErrNotFound)
}

// TestRandomOperations_KeepInvariants drives random admin actions and checks
// that status stays valid, resolved always has a response, updated_at never
// moves backwards and every committed change is audited.
func TestRandomOperations_KeepInvariants(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	none := complaint.UpdateOptions{}

	c := submit(t, svc)
	lastUpdated := c.UpdatedAt
	for i := 0; i < 300; i++ {
		before := store.stored(c.ID)
		historyBefore := len(store.history)

		var err error
		switch rng.Intn(7) {
		case 0:
			_, err = svc.TakeIntoWork(ctx, admin, c.ID, none)
		case 1:
			_, err = svc.Reject(ctx, admin, c.ID, none)
		case 2:
			text := []string{"", "Fixed", "Cleaned"}[rng.Intn(3)]
			_, err = svc.AttachResponse(ctx, admin, c.ID, text, "Ivan", none)
		case 3:
			_, err = svc.Reopen(ctx, admin, c.ID, none)
		case 4:
			_, err = svc.DeleteResponse(ctx, admin, c.ID, none)
		case 5:
			_, err = svc.SetPriority(ctx, admin, c.ID, []string{"", uuid.New().String()}[rng.Intn(2)], none)
		case 6:
			_, err = svc.SetAssignee(ctx, admin, c.ID, []string{"", uuid.New().String()}[rng.Intn(2)], none)
		}

		after := store.stored(c.ID)
		require.True(t, after.Status.Valid())
		if after.Status == models.StatusResolved {
			require.NotNil(t, after.Response)
		}
		if after.Response != nil {
			require.Contains(t, []models.Status{models.StatusResolved, models.StatusRejected, models.StatusProcessing}, after.Status)
		}
		require.False(t, after.UpdatedAt.Before(lastUpdated))
		lastUpdated = after.UpdatedAt

		if err != nil {
			require.Equal(t, before, after, "a refused operation leaves the complaint untouched")
			require.Len(t, store.history, historyBefore)
			continue
		}
		added := store.history[historyBefore:]
		seen := map[string]bool{}
		for _, h := range added {
			require.False(t, seen[h.FieldName], "one row per changed field")
			seen[h.FieldName] = true
		}
		if before.Status != after.Status {
			require.True(t, seen[models.FieldStatus])
		}
	}
}
