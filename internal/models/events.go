package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types pushed to live dashboard connections
const (
	EventTypeStateSnapshot = "state.snapshot"
	EventTypeStateUpdated  = "state.updated"
)

// StateEvent is the envelope written to websocket subscribers
type StateEvent struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	SessionID string        `json:"session_id"`
	Version   uint64        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	State     StateResponse `json:"state"`
}

// NewStateEvent stamps a state payload with a fresh event id
func NewStateEvent(eventType, sessionID string, state StateResponse) StateEvent {
	return StateEvent{
		ID:        ulid.Make().String(),
		Type:      eventType,
		SessionID: sessionID,
		Version:   state.Version,
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}
