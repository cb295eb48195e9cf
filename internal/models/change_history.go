package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tracked field names recorded in the change history.
const (
	FieldStatus   = "status"
	FieldPriority = "priority"
	FieldAssignee = "assignee"
	FieldResponse = "response"
)

// ChangeHistory is an append-only audit entry for one field of one complaint.
// Rows are never updated or deleted; they outlive the complaint they describe.
type ChangeHistory struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	// ComplaintID is a plain reference, not a foreign key, so the trail survives a hard delete.
	ComplaintID string `gorm:"type:uuid;not null;index:idx_history_complaint" json:"complaint_id"`
	FieldName   string `gorm:"type:text;not null" json:"field_name"`

	// OldValue and NewValue are nil when the field was unset on that side of the change.
	OldValue *string `gorm:"type:text" json:"old_value"`
	NewValue *string `gorm:"type:text" json:"new_value"`

	ActorID   string    `gorm:"type:text;not null" json:"actor_id"`
	CreatedAt time.Time `gorm:"not null;index:idx_history_complaint" json:"created_at"`

	// Seq orders rows written within the same operation.
	Seq int64 `gorm:"autoIncrement;not null" json:"-"`
}

func (ChangeHistory) TableName() string {
	return "change_history"
}

func (h *ChangeHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return
}
