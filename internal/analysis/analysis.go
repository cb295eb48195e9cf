// Package analysis computes dashboard statistics and exports over a loaded
// set of complaints. It never touches storage.
package analysis

import (
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
)

// Stats is the dashboard summary of a complaint set.
type Stats struct {
	Total      int                   `json:"total"`
	ByStatus   map[models.Status]int `json:"by_status"`
	ByCategory map[string]int        `json:"by_category"`
	// OpenBacklog counts complaints still waiting on staff (new or processing).
	OpenBacklog   int     `json:"open_backlog"`
	WithResponse  int     `json:"with_response"`
	Rated         int     `json:"rated"`
	AverageRating float64 `json:"average_rating"`
	// AverageResolutionHours is measured from creation to the last update of resolved complaints.
	AverageResolutionHours float64 `json:"average_resolution_hours"`
}

// Summarize builds Stats for list. Every known status and category is
// present in the maps, zero when unused.
func Summarize(list []models.Complaint) Stats {
	st := Stats{
		Total:      len(list),
		ByStatus:   make(map[models.Status]int, len(models.Statuses)),
		ByCategory: make(map[string]int, len(config.Categories)),
	}
	for _, s := range models.Statuses {
		st.ByStatus[s] = 0
	}
	for _, c := range config.Categories {
		st.ByCategory[c] = 0
	}

	var ratingSum, resolved int
	var resolutionHours float64
	for _, c := range list {
		st.ByStatus[c.Status]++
		st.ByCategory[c.Category]++
		if c.Status == models.StatusNew || c.Status == models.StatusProcessing {
			st.OpenBacklog++
		}
		if c.HasResponse() {
			st.WithResponse++
		}
		if c.Rating != nil {
			st.Rated++
			ratingSum += *c.Rating
		}
		if c.Status == models.StatusResolved && c.UpdatedAt.After(c.CreatedAt) {
			resolved++
			resolutionHours += c.UpdatedAt.Sub(c.CreatedAt).Hours()
		}
	}
	if st.Rated > 0 {
		st.AverageRating = float64(ratingSum) / float64(st.Rated)
	}
	if resolved > 0 {
		st.AverageResolutionHours = resolutionHours / float64(resolved)
	}
	return st
}
