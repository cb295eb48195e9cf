package models

// NotificationKind selects the outbound message shape.
type NotificationKind string

const (
	NotificationNewComplaint NotificationKind = "new_complaint"
	NotificationStatusUpdate NotificationKind = "status_update"
)

// Notification is an outbound admin-channel message about one complaint.
type Notification struct {
	Kind           NotificationKind
	Complaint      Complaint
	PreviousStatus Status
	ActorName      string
}
