package domain

import "time"

// Message captures one entry of a ticket conversation thread. Messages are
// never edited or deleted once created.
type Message struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	AuthorName string
	AuthorRole Role
	Body       string
	SentAt     time.Time
}

// Before orders messages by (SentAt, ID). SentAt alone is not unique, so the
// id breaks ties to keep the order total.
func (m Message) Before(other Message) bool {
	if !m.SentAt.Equal(other.SentAt) {
		return m.SentAt.Before(other.SentAt)
	}
	return m.ID < other.ID
}
