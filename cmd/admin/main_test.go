package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/storage/storagemock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListComplaints(t *testing.T) {
	store := new(storagemock.MockStorage)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f storage.ComplaintFilter) bool {
		return len(f.Statuses) == 1 && f.Statuses[0] == models.StatusProcessing
	})).Return([]models.Complaint{{ID: "c-1", Status: models.StatusProcessing, Category: "staff", Version: 2, Description: "Rude at the desk", CreatedAt: at}}, int64(1), nil)

	var out bytes.Buffer
	err := listComplaints(context.Background(), complaint.NewService(store, nil, nil), []string{"in_progress"}, &out)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "c-1")
	assert.Contains(t, lines[1], "Rude at the desk")
}

func TestListComplaints_UnknownStatus(t *testing.T) {
	err := listComplaints(context.Background(), complaint.NewService(new(storagemock.MockStorage), nil, nil), []string{"archived"}, &bytes.Buffer{})
	assert.EqualError(t, err, `unknown status "archived"`)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "abcd…", shorten("abcdefgh", 5))
}
