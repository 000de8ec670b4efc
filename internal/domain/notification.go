package domain

import "time"

// Notification is a global user notification. Read flips false to true only.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	TicketID  *int64
	Read      bool
	CreatedAt time.Time
}
