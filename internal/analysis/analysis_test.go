package analysis_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v int) *int { return &v }

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sample() []models.Complaint {
	return []models.Complaint{
		{ID: "1", Status: models.StatusNew, Category: "facilities", Rating: rating(2), CreatedAt: t0, UpdatedAt: t0},
		{ID: "2", Status: models.StatusProcessing, Category: "staff", CreatedAt: t0, UpdatedAt: t0},
		{
			ID: "3", Status: models.StatusResolved, Category: "facilities", Rating: rating(5),
			Response:  &models.ComplaintResponse{Text: "Fixed, thanks", AdminName: "Ivan"},
			CreatedAt: t0, UpdatedAt: t0.Add(4 * time.Hour),
		},
		{ID: "4", Status: models.StatusRejected, Category: "other", CreatedAt: t0, UpdatedAt: t0.Add(time.Hour)},
	}
}

func TestSummarize(t *testing.T) {
	st := analysis.Summarize(sample())

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 2, st.OpenBacklog)
	assert.Equal(t, 1, st.WithResponse)
	assert.Equal(t, 2, st.Rated)
	assert.InDelta(t, 3.5, st.AverageRating, 0.001)
	assert.InDelta(t, 4.0, st.AverageResolutionHours, 0.001)
	assert.Equal(t, 1, st.ByStatus[models.StatusNew])
	assert.Equal(t, 0, st.ByStatus[models.StatusClosed])
	assert.Len(t, st.ByStatus, len(models.Statuses))
	assert.Equal(t, 2, st.ByCategory["facilities"])
}

func TestSummarize_Empty(t *testing.T) {
	st := analysis.Summarize(nil)

	assert.Zero(t, st.Total)
	assert.Zero(t, st.AverageRating)
	assert.NotEmpty(t, st.ByCategory)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, analysis.WriteCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "id", rows[0][0])

	resolved := rows[3]
	assert.Equal(t, "3", resolved[0])
	assert.Equal(t, "2026-03-01T13:00:00Z", resolved[2])
	assert.Equal(t, "resolved", resolved[3])
	assert.Equal(t, "5", resolved[10])
	assert.Equal(t, "Fixed, thanks", resolved[13])
	assert.Equal(t, "Ivan", resolved[14])
	assert.Equal(t, "", rows[2][10], "missing rating stays blank")
}

func TestWriteCSV_NeutralizesFormulas(t *testing.T) {
	list := []models.Complaint{{
		ID:           "5",
		Status:       models.StatusResolved,
		Category:     "other",
		Title:        "=HYPERLINK(\"http://evil\",\"x\")",
		Description:  "@SUM(A1:A9)",
		ContactEmail: "-2+3",
		ContactPhone: "+380 44 000 0000",
		Response:     &models.ComplaintResponse{Text: "Plain answer", AdminName: "=cmd"},
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}}

	var buf bytes.Buffer
	require.NoError(t, analysis.WriteCSV(&buf, list))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "'=HYPERLINK(\"http://evil\",\"x\")", row[5])
	assert.Equal(t, "'@SUM(A1:A9)", row[6])
	assert.Equal(t, "'-2+3", row[11])
	assert.Equal(t, "'+380 44 000 0000", row[12])
	assert.Equal(t, "Plain answer", row[13])
	assert.Equal(t, "'=cmd", row[14])
}
