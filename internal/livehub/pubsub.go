package livehub

import (
	"context"
	"encoding/json"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenPubSub decodes events from ps into the hub until ctx is cancelled
// or the subscription is closed. It closes ps on return.
func (m *ManagerService) ListenPubSub(ctx context.Context, ps *redis.PubSub) error {
	defer ps.Close()
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.LiveEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				m.log.Warn("bad live event payload", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case m.PubSubCh <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
