package telegram

import (
	"fmt"
	"strings"
	"time"

	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot API limits.
const (
	maxMessageLength = 4096
	maxCaptionLength = 1024
)

const timeLayout = "02.01.2006 15:04"

// Formatter renders notifications as plain text in one language.
type Formatter struct {
	Localizer *localization.Localizer
	Lang      string
	Location  *time.Location
}

// Text renders the body of a notification. locationName may be empty.
func (f Formatter) Text(n models.Notification, locationName string) string {
	c := n.Complaint
	t := func(key string) string { return f.Localizer.GetString(f.Lang, key) }
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	switch n.Kind {
	case models.NotificationNewComplaint:
		fmt.Fprintf(&b, "🆕 %s\n\n", t("notify_new_title"))
	default:
		fmt.Fprintf(&b, "🔄 %s\n\n", t("notify_status_title"))
	}

	fmt.Fprintf(&b, "%s: %s\n", t("label_category"), f.Localizer.Category(f.Lang, c.Category))
	if c.Title != "" {
		fmt.Fprintf(&b, "%s\n", c.Title)
	}
	fmt.Fprintf(&b, "%s: %s\n", t("label_description"), c.Description)
	if locationName != "" {
		fmt.Fprintf(&b, "%s: %s\n", t("label_location"), locationName)
	}

	status := f.Localizer.Status(f.Lang, string(c.Status))
	if n.Kind == models.NotificationStatusUpdate && n.PreviousStatus != "" && n.PreviousStatus != c.Status {
		fmt.Fprintf(&b, "%s: %s → %s\n", t("label_status"), f.Localizer.Status(f.Lang, string(n.PreviousStatus)), status)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", t("label_status"), status)
	}

	if c.Rating != nil {
		fmt.Fprintf(&b, "%s: %s\n", t("label_rating"), strings.Repeat("★", *c.Rating))
	}
	if contact := joinNonEmpty(", ", c.ContactEmail, c.ContactPhone); contact != "" {
		fmt.Fprintf(&b, "%s: %s\n", t("label_contact"), contact)
	}
	if c.Response != nil {
		fmt.Fprintf(&b, "%s (%s): %s\n", t("label_response"), c.Response.AdminName, c.Response.Text)
	}
	if len(c.Attachments) > 0 {
		fmt.Fprintf(&b, "%s: %d\n", t("label_attachments"), len(c.Attachments))
	}

	if n.Kind == models.NotificationNewComplaint {
		fmt.Fprintf(&b, "%s: %s", t("label_created"), c.CreatedAt.In(loc).Format(timeLayout))
	} else {
		fmt.Fprintf(&b, "%s: %s", t("label_updated"), c.UpdatedAt.In(loc).Format(timeLayout))
		if n.ActorName != "" {
			fmt.Fprintf(&b, "\n%s: %s", t("label_by"), n.ActorName)
		}
	}
	return b.String()
}

// Build returns the message to send: a photo with caption when the first
// attachment is an image, otherwise a text message.
func (f Formatter) Build(chatID int64, n models.Notification, locationName string) tgbotapi.Chattable {
	text := f.Text(n, locationName)
	if first, ok := n.Complaint.FirstAttachment(); ok && first.IsImage() {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(first.URL))
		photo.Caption = truncate(text, maxCaptionLength)
		return photo
	}
	return f.TextMessage(chatID, text)
}

// TextMessage wraps text in a plain message, truncated to the API limit.
func (f Formatter) TextMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, truncate(text, maxMessageLength))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
