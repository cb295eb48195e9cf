package livehub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaintdesk/backend/internal/livehub"
	"complaintdesk/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *livehub.ManagerService {
	t.Helper()
	hub := livehub.NewManagerService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func TestManager_RegisterAndBroadcast(t *testing.T) {
	hub := startHub(t)
	a := newMockClient("a", 4)
	b := newMockClient("b", 4)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.PubSubCh <- models.LiveEvent{Type: models.EventComplaintCreated, ComplaintID: "c-1"}

	for _, c := range []*MockClient{a, b} {
		select {
		case ev := <-c.RecvChannel:
			assert.Equal(t, "c-1", ev.ComplaintID)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the event", c.id)
		}
	}
}

func TestManager_Unregister(t *testing.T) {
	hub := startHub(t)
	a := newMockClient("a", 4)
	require.True(t, hub.Register(a))

	hub.Unregister(a)
	hub.Unregister(a)
	hub.PubSubCh <- models.LiveEvent{Type: models.EventComplaintDeleted, ComplaintID: "c-1"}
	// A second registration round-trips through Run, so the broadcast above is done.
	require.True(t, hub.Register(newMockClient("b", 1)))

	assert.Equal(t, 1, a.Closed())
	assert.Empty(t, a.RecvChannel)
}

func TestManager_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := newMockClient("slow", 0)
	fast := newMockClient("fast", 4)
	require.True(t, hub.Register(slow))
	require.True(t, hub.Register(fast))

	hub.PubSubCh <- models.LiveEvent{Type: models.EventComplaintUpdated, ComplaintID: "c-1"}

	select {
	case <-fast.RecvChannel:
	case <-time.After(time.Second):
		t.Fatal("fast client starved")
	}
	assert.Eventually(t, func() bool { return slow.Closed() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManager_StopClosesClients(t *testing.T) {
	hub := livehub.NewManagerService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	a := newMockClient("a", 1)
	require.True(t, hub.Register(a))
	cancel()
	<-done

	assert.Equal(t, 1, a.Closed())
	assert.False(t, hub.Register(newMockClient("late", 1)))
	hub.Unregister(a)
}

func TestWebSocketClient_StreamsEvents(t *testing.T) {
	hub := startHub(t)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := livehub.NewWebSocketClient("ws-1", "admin", conn, hub)
		if hub.Register(client) {
			client.Run()
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration is asynchronous to the dial; keep publishing until one lands.
	received := make(chan models.LiveEvent, 1)
	go func() {
		var ev models.LiveEvent
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	}()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case hub.PubSubCh <- models.LiveEvent{Type: models.EventComplaintUpdated, ComplaintID: "c-9", Status: models.StatusResolved}:
		case ev := <-received:
			assert.Equal(t, "c-9", ev.ComplaintID)
			assert.Equal(t, models.StatusResolved, ev.Status)
			return
		case <-deadline:
			t.Fatal("no event received over the websocket")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
