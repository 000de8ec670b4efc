package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The values are the
// exact tokens the backend produces and accepts.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDIENTE"
	TicketStatusAssigned   TicketStatus = "ASIGNADO"
	TicketStatusInProgress TicketStatus = "EN_PROCESO"
	TicketStatusClosed     TicketStatus = "CERRADO"
	TicketStatusVoided     TicketStatus = "ANULADO"
)

// AllStatuses lists every valid status in presentation order.
var AllStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusClosed,
	TicketStatusVoided,
}

// IsTerminal reports whether the status admits no further mutation.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusVoided
}

// Valid reports whether s is one of the known wire tokens.
func (s TicketStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency, in wire tokens.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "ALTA"
	TicketPriorityMedium TicketPriority = "MEDIA"
	TicketPriorityLow    TicketPriority = "BAJA"
)

// Technician identifies an assignable staff member from the personnel directory.
type Technician struct {
	ID    int64
	Name  string
	Email string
}

// Ticket is the client's cached copy of a support request. The backend owns
// the canonical record; the copy is replaced only after a confirmed mutation.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    string
	CreatedAt   time.Time
	Technician  *Technician
}
