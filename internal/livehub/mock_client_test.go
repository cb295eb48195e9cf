package livehub_test

import (
	"sync/atomic"

	"complaintdesk/backend/internal/models"
)

type MockClient struct {
	id          string
	RecvChannel chan models.LiveEvent
	closed      atomic.Int32
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{id: id, RecvChannel: make(chan models.LiveEvent, buffer)}
}

func (c *MockClient) GetClientID() string                     { return c.id }
func (c *MockClient) GetSendChannel() chan<- models.LiveEvent { return c.RecvChannel }
func (c *MockClient) Run()                                    {}
func (c *MockClient) Close()                                  { c.closed.Add(1) }
func (c *MockClient) Closed() int                             { return int(c.closed.Load()) }
