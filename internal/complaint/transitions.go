package complaint

import (
	"strings"
	"time"
	"unicode/utf8"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
)

// Each transition mutates c in place or returns an error leaving c untouched.
type transition func(c *models.Complaint, now time.Time) error

func takeIntoWork(c *models.Complaint, _ time.Time) error {
	if c.Status != models.StatusNew {
		return &TransitionError{From: string(c.Status), Action: "take into work"}
	}
	c.Status = models.StatusProcessing
	return nil
}

func reject(c *models.Complaint, _ time.Time) error {
	if c.Status != models.StatusNew && c.Status != models.StatusProcessing {
		return &TransitionError{From: string(c.Status), Action: "reject"}
	}
	c.Status = models.StatusRejected
	return nil
}

// attachResponse resolves a complaint in processing with a non-empty answer.
func attachResponse(text, adminName string) transition {
	text = strings.TrimSpace(text)
	adminName = strings.TrimSpace(adminName)
	return func(c *models.Complaint, now time.Time) error {
		if text == "" {
			return invalid("response.text", "must not be empty")
		}
		if utf8.RuneCountInString(text) > config.MaxResponseLength {
			return invalid("response.text", "too long")
		}
		if adminName == "" {
			return invalid("response.admin_name", "must not be empty")
		}
		if c.Status != models.StatusProcessing {
			return &TransitionError{From: string(c.Status), Action: "attach a response"}
		}
		c.Response = &models.ComplaintResponse{Text: text, AdminName: adminName, RespondedAt: now}
		c.Status = models.StatusResolved
		return nil
	}
}

// reopen sends a finished complaint back to processing. Only complaints that
// never received a response can be reopened.
func reopen(c *models.Complaint, _ time.Time) error {
	if c.Status != models.StatusResolved && c.Status != models.StatusRejected {
		return &TransitionError{From: string(c.Status), Action: "reopen"}
	}
	if c.HasResponse() {
		return &TransitionError{From: string(c.Status), Action: "reopen", Reason: "delete the response first"}
	}
	c.Status = models.StatusProcessing
	return nil
}

// deleteResponse clears the response and always demotes the complaint to processing.
func deleteResponse(c *models.Complaint, _ time.Time) error {
	switch c.Status {
	case models.StatusResolved, models.StatusRejected, models.StatusProcessing:
	default:
		return &TransitionError{From: string(c.Status), Action: "delete the response"}
	}
	if !c.HasResponse() {
		return &TransitionError{From: string(c.Status), Action: "delete the response", Reason: "there is no response"}
	}
	c.Response = nil
	c.Status = models.StatusProcessing
	return nil
}

func setPriority(priorityID *string) transition {
	return func(c *models.Complaint, _ time.Time) error {
		c.PriorityID = priorityID
		return nil
	}
}

func setAssignee(assigneeID *string) transition {
	return func(c *models.Complaint, _ time.Time) error {
		c.AssigneeID = assigneeID
		return nil
	}
}

// trackedValues captures the audited fields of a complaint. A nil value means unset.
func trackedValues(c *models.Complaint) map[string]*string {
	status := string(c.Status)
	vals := map[string]*string{
		models.FieldStatus:   &status,
		models.FieldPriority: c.PriorityID,
		models.FieldAssignee: c.AssigneeID,
		models.FieldResponse: nil,
	}
	if c.Response != nil {
		text := c.Response.Text
		vals[models.FieldResponse] = &text
	}
	return vals
}

var trackedOrder = []string{models.FieldStatus, models.FieldPriority, models.FieldAssignee, models.FieldResponse}

// fieldChange is one audited field whose value differs before and after a mutation.
type fieldChange struct {
	Field string
	Old   *string
	New   *string
}

func diffTracked(before, after map[string]*string) []fieldChange {
	var changes []fieldChange
	for _, f := range trackedOrder {
		if !sameValue(before[f], after[f]) {
			changes = append(changes, fieldChange{Field: f, Old: before[f], New: after[f]})
		}
	}
	return changes
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
