package telegram

import (
	"context"
	"errors"
	"time"

	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Notify when the dispatcher cannot take more work.
var ErrQueueFull = errors.New("telegram: notification queue full")

// LocationLister resolves location ids to names for message bodies.
type LocationLister interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
}

// Dispatcher queues notifications and delivers them from a single goroutine,
// so request handlers never wait on the Bot API.
type Dispatcher struct {
	sender    Sender
	chatID    int64
	formatter Formatter
	locations LocationLister
	timeout   time.Duration
	log       *zap.Logger
	queue     chan models.Notification
}

func NewDispatcher(sender Sender, chatID int64, formatter Formatter, locations LocationLister, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:    sender,
		chatID:    chatID,
		formatter: formatter,
		locations: locations,
		timeout:   timeout,
		log:       log.Named("telegram"),
		queue:     make(chan models.Notification, queueSize),
	}
}

// Notify enqueues n without blocking.
func (d *Dispatcher) Notify(_ context.Context, n models.Notification) error {
	select {
	case d.queue <- n:
		metrics.UpdateNotificationQueueSize(len(d.queue))
		return nil
	default:
		metrics.RecordNotification(string(n.Kind), "dropped")
		return ErrQueueFull
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-d.queue:
			metrics.UpdateNotificationQueueSize(len(d.queue))
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n models.Notification) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	kind := string(n.Kind)
	location := d.locationName(ctx, n.Complaint.LocationID)
	msg := d.formatter.Build(d.chatID, n, location)

	_, err := d.sender.Send(msg)
	if err != nil {
		if _, isPhoto := msg.(tgbotapi.PhotoConfig); isPhoto {
			// Telegram could not fetch the image; the text alone still informs.
			d.log.Warn("photo notification failed, sending text", zap.String("complaint_id", n.Complaint.ID), zap.Error(err))
			_, err = d.sender.Send(d.formatter.TextMessage(d.chatID, d.formatter.Text(n, location)))
		}
	}
	if err != nil {
		metrics.RecordNotification(kind, "failed")
		d.log.Warn("notification not delivered",
			zap.String("kind", kind),
			zap.String("complaint_id", n.Complaint.ID),
			zap.Error(err),
		)
		return
	}
	metrics.RecordNotification(kind, "sent")
}

func (d *Dispatcher) locationName(ctx context.Context, id *string) string {
	if id == nil || d.locations == nil {
		return ""
	}
	list, err := d.locations.ListLocations(ctx)
	if err != nil {
		d.log.Debug("location lookup failed", zap.String("location_id", *id), zap.Error(err))
		return ""
	}
	for _, l := range list {
		if l.ID == *id {
			return l.Name
		}
	}
	return ""
}
