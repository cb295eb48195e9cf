package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"complaintdesk/backend/internal/models"
)

var exportHeader = []string{
	"id", "created_at", "updated_at", "status", "category", "title", "description",
	"location_id", "priority_id", "assignee_id", "rating", "contact_email", "contact_phone",
	"response", "response_by", "attachments", "version",
}

// WriteCSV writes list as CSV with a header row.
func WriteCSV(w io.Writer, list []models.Complaint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("analysis: write header: %w", err)
	}
	for _, c := range list {
		if err := cw.Write(record(c)); err != nil {
			return fmt.Errorf("analysis: write %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(c models.Complaint) []string {
	var response, by, rating string
	if c.Response != nil {
		response, by = c.Response.Text, c.Response.AdminName
	}
	if c.Rating != nil {
		rating = strconv.Itoa(*c.Rating)
	}
	return []string{
		c.ID,
		c.CreatedAt.UTC().Format(time.RFC3339),
		c.UpdatedAt.UTC().Format(time.RFC3339),
		string(c.Status),
		c.Category,
		cell(c.Title),
		cell(c.Description),
		deref(c.LocationID),
		deref(c.PriorityID),
		deref(c.AssigneeID),
		rating,
		cell(c.ContactEmail),
		cell(c.ContactPhone),
		cell(response),
		cell(by),
		strconv.Itoa(len(c.Attachments)),
		strconv.Itoa(c.Version),
	}
}

// cell keeps spreadsheet applications from evaluating free text as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
