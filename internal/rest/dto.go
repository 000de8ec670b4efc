package rest

import (
	"regexp"
	"time"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
)

// ticketDTO mirrors the backend ticket representation.
type ticketDTO struct {
	ID            int64          `json:"id"`
	Title         string         `json:"titulo"`
	Description   string         `json:"descripcion"`
	Status        string         `json:"estado"`
	Priority      string         `json:"prioridad"`
	Category      string         `json:"categoria"`
	CreatedAt     string         `json:"fechaCreacion"`
	Technician    *technicianDTO `json:"tecnico,omitempty"`
	AssigneeName  string         `json:"tecnicoNombre,omitempty"`
	AssigneeEmail string         `json:"tecnicoCorreo,omitempty"`
}

// technicianDTO mirrors the personnel directory entry.
type technicianDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"nombres"`
	Email string `json:"correo"`
}

// messageDTO mirrors one thread reply.
type messageDTO struct {
	ID         int64  `json:"id"`
	TicketID   int64  `json:"ticketId"`
	AuthorID   int64  `json:"autorId"`
	AuthorName string `json:"autorNombre"`
	AuthorRole string `json:"autorRol"`
	Body       string `json:"mensaje"`
	SentAt     string `json:"fecha"`
}

// postMessageRequest is the reply payload.
type postMessageRequest struct {
	TicketID int64  `json:"ticketId"`
	Body     string `json:"mensaje"`
}

// notificationDTO mirrors one notification entry.
type notificationDTO struct {
	ID        int64  `json:"id"`
	Title     string `json:"titulo"`
	Body      string `json:"mensaje"`
	TicketID  *int64 `json:"ticketId,omitempty"`
	Read      bool   `json:"leida"`
	CreatedAt string `json:"fechaCreacion"`
}

// notificationPageDTO mirrors the paged notification envelope.
type notificationPageDTO struct {
	Content       []notificationDTO `json:"content"`
	TotalPages    int               `json:"totalPages"`
	TotalElements int64             `json:"totalElements"`
	Number        int               `json:"number"`
	Size          int               `json:"size"`
}

// NotificationPage is the decoded notification listing.
type NotificationPage struct {
	Items         []domain.Notification
	Page          int
	Size          int
	TotalPages    int
	TotalElements int64
}

// NotificationQuery filters the notification listing.
type NotificationQuery struct {
	Page       int
	Size       int
	UnreadOnly bool
}

var tzSuffix = regexp.MustCompile(`([+-]\d{2}:\d{2}|Z)$`)

// parseAPITime decodes backend timestamps. The backend emits naive stamps
// without a zone suffix; those are UTC on the wire.
func parseAPITime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if !tzSuffix.MatchString(raw) {
		raw += "Z"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05.999Z07:00"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func (d ticketDTO) toDomain() domain.Ticket {
	ticket := domain.Ticket{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.TicketStatus(d.Status),
		Priority:    domain.TicketPriority(d.Priority),
		Category:    d.Category,
		CreatedAt:   parseAPITime(d.CreatedAt),
	}
	if d.Technician != nil {
		tech := d.Technician.toDomain()
		ticket.Technician = &tech
	} else if d.AssigneeName != "" {
		// some listings flatten the technician into two fields
		ticket.Technician = &domain.Technician{Name: d.AssigneeName, Email: d.AssigneeEmail}
	}
	return ticket
}

func (d technicianDTO) toDomain() domain.Technician {
	return domain.Technician{ID: d.ID, Name: d.Name, Email: d.Email}
}

func (d messageDTO) toDomain(ticketID int64) domain.Message {
	id := d.TicketID
	if id == 0 {
		id = ticketID
	}
	return domain.Message{
		ID:         d.ID,
		TicketID:   id,
		AuthorID:   d.AuthorID,
		AuthorName: d.AuthorName,
		AuthorRole: domain.Role(d.AuthorRole),
		Body:       d.Body,
		SentAt:     parseAPITime(d.SentAt),
	}
}

func (d notificationDTO) toDomain() domain.Notification {
	return domain.Notification{
		ID:        d.ID,
		Title:     d.Title,
		Body:      d.Body,
		TicketID:  d.TicketID,
		Read:      d.Read,
		CreatedAt: parseAPITime(d.CreatedAt),
	}
}
