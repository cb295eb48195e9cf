package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feedback is a short free-form note left through the public form.
type Feedback struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	Rating       *int      `json:"rating,omitempty"`
	ContactEmail string    `gorm:"type:text" json:"contact_email,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (Feedback) TableName() string { return "feedbacks" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// Survey stores one filled-in questionnaire. Answers is kept as raw JSON
// because questionnaires change more often than the schema.
type Survey struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	SurveyName string         `gorm:"type:text;not null;index" json:"survey_name"`
	Answers    datatypes.JSON `gorm:"type:jsonb;not null" json:"answers"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (Survey) TableName() string { return "surveys" }

func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
