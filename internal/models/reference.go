package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Priority annotates a complaint with an urgency level. Lower Level is more urgent.
type Priority struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Level     int       `gorm:"not null;default:0" json:"level"`
	Color     string    `gorm:"type:text" json:"color,omitempty"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
}

func (Priority) TableName() string { return "priorities" }

func (p *Priority) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Assignee is a staff member complaints can be routed to.
type Assignee struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Name  string `gorm:"type:text;not null" json:"name"`
	Email string `gorm:"type:text" json:"email,omitempty"`
	Phone string `gorm:"type:text" json:"phone,omitempty"`
	// Categories the assignee usually handles.
	Categories pq.StringArray `gorm:"type:text[]" json:"categories"`
	Active     bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time      `gorm:"<-:create" json:"created_at"`
}

func (Assignee) TableName() string { return "assignees" }

func (a *Assignee) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Location is a place inside the facility (a hall, a pool, a locker room).
type Location struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"<-:create" json:"created_at"`
}

func (Location) TableName() string { return "locations" }

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// ResponseTemplate is a canned answer administrators can start from.
type ResponseTemplate struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Category  string    `gorm:"type:text;index" json:"category,omitempty"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
}

func (ResponseTemplate) TableName() string { return "response_templates" }

func (t *ResponseTemplate) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}
