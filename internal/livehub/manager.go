package livehub

import (
	"context"

	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"

	"go.uber.org/zap"
)

// ManagerService owns the set of connected clients. All map access happens
// on the Run goroutine.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	PubSubCh     chan models.LiveEvent

	done chan struct{}
	log  *zap.Logger
}

func NewManagerService(log *zap.Logger) *ManagerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.LiveEvent, 64),
		done:         make(chan struct{}),
		log:          log.Named("livehub"),
	}
}

// Register hands c to the hub. It reports false once the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes c from the hub; it never blocks after shutdown.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every remaining client.
func (m *ManagerService) Run(ctx context.Context) error {
	defer func() {
		close(m.done)
		for id, c := range m.Clients {
			c.Close()
			delete(m.Clients, id)
		}
		metrics.LiveClients.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-m.RegisterCh:
			m.Clients[c.GetClientID()] = c
			metrics.LiveClients.Set(float64(len(m.Clients)))
			m.log.Debug("client registered", zap.String("client_id", c.GetClientID()))

		case c := <-m.UnregisterCh:
			m.remove(c)

		case ev := <-m.PubSubCh:
			m.broadcast(ev)
		}
	}
}

func (m *ManagerService) broadcast(ev models.LiveEvent) {
	for _, c := range m.Clients {
		select {
		case c.GetSendChannel() <- ev:
		default:
			m.log.Warn("dropping slow client", zap.String("client_id", c.GetClientID()), zap.String("event", ev.Type))
			m.remove(c)
		}
	}
}

func (m *ManagerService) remove(c Client) {
	id := c.GetClientID()
	if current, ok := m.Clients[id]; !ok || current != c {
		return
	}
	delete(m.Clients, id)
	c.Close()
	metrics.LiveClients.Set(float64(len(m.Clients)))
	m.log.Debug("client unregistered", zap.String("client_id", id))
}
