package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNew, StatusProcessing, StatusResolved, StatusClosed, StatusRejected}

// ParseStatus accepts the canonical names plus the legacy "in_progress" alias.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return StatusNew, true
	case "processing", "in_progress":
		return StatusProcessing, true
	case "resolved":
		return StatusResolved, true
	case "closed":
		return StatusClosed, true
	case "rejected":
		return StatusRejected, true
	}
	return "", false
}

// Valid reports whether s is a canonical status value.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Complaint is a visitor-submitted issue tracked through the status lifecycle.
// Response is stored as a nullable JSON column; a nil pointer means no response.
type Complaint struct {
	ID           string                              `gorm:"primaryKey;type:uuid" json:"id"`
	Title        string                              `gorm:"type:text" json:"title,omitempty"`
	Description  string                              `gorm:"type:text;not null" json:"description"`
	Category     string                              `gorm:"type:text;not null;index" json:"category"`
	Status       Status                              `gorm:"type:text;not null;default:new;index" json:"status"`
	LocationID   *string                             `gorm:"type:uuid;index" json:"location_id,omitempty"`
	ContactEmail string                              `gorm:"type:text" json:"contact_email,omitempty"`
	ContactPhone string                              `gorm:"type:text" json:"contact_phone,omitempty"`
	Rating       *int                                `json:"rating,omitempty"`
	Attachments  datatypes.JSONSlice[FileAttachment] `gorm:"type:jsonb;not null;default:'[]'" json:"attachments"`
	Response     *ComplaintResponse                  `gorm:"type:jsonb;serializer:json" json:"response"`
	PriorityID   *string                             `gorm:"type:uuid;index" json:"priority_id,omitempty"`
	AssigneeID   *string                             `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	Version      int                                 `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time                           `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time                           `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasResponse reports whether a response is attached.
func (c *Complaint) HasResponse() bool {
	return c.Response != nil
}

// FirstAttachment returns the first stored attachment, if any.
func (c *Complaint) FirstAttachment() (FileAttachment, bool) {
	if len(c.Attachments) == 0 {
		return FileAttachment{}, false
	}
	return c.Attachments[0], true
}

// FileAttachment is a file uploaded to object storage and linked to exactly one complaint.
type FileAttachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

func (a FileAttachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MimeType), "image/")
}

// UsableAttachments keeps the attachments that resolve to an absolute http(s)
// URL, preserving order.
func UsableAttachments(in []FileAttachment) []FileAttachment {
	out := make([]FileAttachment, 0, len(in))
	for _, a := range in {
		a.URL = strings.TrimSpace(a.URL)
		if !resolvable(a.URL) {
			continue
		}
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		out = append(out, a)
	}
	return out
}

func resolvable(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ComplaintResponse is the single administrator answer owned by a complaint.
type ComplaintResponse struct {
	Text        string    `json:"text"`
	AdminName   string    `json:"admin_name"`
	RespondedAt time.Time `json:"responded_at"`
}
