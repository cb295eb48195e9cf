// Package livehub fans committed complaint events out to connected
// dashboard sessions. Events arrive through Redis pub/sub so every API
// instance sees changes made by the others.
package livehub

import "complaintdesk/backend/internal/models"

// Client is one connected dashboard session.
type Client interface {
	// GetClientID returns the connection id, unique per hub.
	GetClientID() string
	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.LiveEvent
	// Run starts the client's read and write pumps.
	Run()
	// Close stops the client. Safe to call more than once.
	Close()
}
