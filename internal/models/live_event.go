package models

import "time"

// Live event types pushed to dashboard clients.
const (
	EventComplaintCreated = "complaint.created"
	EventComplaintUpdated = "complaint.updated"
	EventComplaintDeleted = "complaint.deleted"
)

// LiveEvent describes a committed complaint change for connected dashboards.
type LiveEvent struct {
	Type        string     `json:"type"`
	ComplaintID string     `json:"complaint_id"`
	Status      Status     `json:"status,omitempty"`
	Fields      []string   `json:"fields,omitempty"`
	ActorID     string     `json:"actor_id,omitempty"`
	At          time.Time  `json:"at"`
	Complaint   *Complaint `json:"complaint,omitempty"`
}
