package events

import (
	"time"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageArrived EventType = "message_arrived"
	EventTicketUpdated  EventType = "ticket_updated"
	EventUnreadChanged  EventType = "unread_changed"
)

// Event represents a client-side event emitted by the sync engines.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageArrived returns the arrival payload when the event carries one.
// Subscribers use these accessors instead of bare type assertions so an
// event of the wrong type degrades to a no-op.
func (e Event) MessageArrived() (MessageArrivedPayload, bool) {
	payload, ok := e.Payload.(MessageArrivedPayload)
	return payload, ok
}

// TicketUpdated returns the mutation payload when the event carries one.
func (e Event) TicketUpdated() (TicketUpdatedPayload, bool) {
	payload, ok := e.Payload.(TicketUpdatedPayload)
	return payload, ok
}

// UnreadChanged returns the unread-count payload when the event carries one.
func (e Event) UnreadChanged() (UnreadChangedPayload, bool) {
	payload, ok := e.Payload.(UnreadChangedPayload)
	return payload, ok
}

// MessageArrivedPayload describes a batch of newly merged messages.
type MessageArrivedPayload struct {
	NewIDs        []int64 `json:"new_ids"`
	PreviousCount int     `json:"previous_count"`
	Total         int     `json:"total"`
}

// TicketUpdatedPayload describes a confirmed ticket mutation.
type TicketUpdatedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	TechnicianID *int64              `json:"technician_id,omitempty"`
}

// UnreadChangedPayload describes an unread-count change.
type UnreadChangedPayload struct {
	Previous int `json:"previous"`
	Current  int `json:"current"`
}
