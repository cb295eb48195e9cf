package config

import "time"

const (
	// Rating
	MinRating = 1
	MaxRating = 5

	// Text limits
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxResponseLength    = 5000

	// Attachments
	MaxAttachmentsPerComplaint = 10
	MaxAttachmentSize          = 10 << 20

	// Submission
	IdempotencyKeyTTL = 24 * time.Hour

	// Bulk operations
	MaxBulkDeleteIDs = 500

	// Listing
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Categories is the fixed set of complaint categories accepted by the submission form.
var Categories = []string{
	"facilities",
	"cleanliness",
	"staff",
	"schedule",
	"equipment",
	"safety",
	"payment",
	"suggestion",
	"other",
}

// AllowedAttachmentTypes maps accepted MIME types to the file extension used for object keys.
var AllowedAttachmentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
	"video/mp4":       ".mp4",
}
