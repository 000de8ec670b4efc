package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// Store is the in-memory state behind the development stub. It exists so the
// client can be exercised end to end without the real backend; nothing here
// survives a restart, deliberately.
type Store struct {
	mu            sync.Mutex
	tickets       map[int64]domain.Ticket
	messages      map[int64][]domain.Message
	notifications []domain.Notification
	technicians   []domain.Technician
	nextMessageID int64
	nextNotifID   int64
}

// NewStore seeds a store with a small fixture set.
func NewStore() *Store {
	now := time.Now().UTC().Truncate(time.Second)
	s := &Store{
		tickets:       make(map[int64]domain.Ticket),
		messages:      make(map[int64][]domain.Message),
		nextMessageID: 1,
		nextNotifID:   1,
	}
	s.technicians = []domain.Technician{
		{ID: 10, Name: "Laura Campos", Email: "laura.campos@example.com"},
		{ID: 11, Name: "Marco Díaz", Email: "marco.diaz@example.com"},
	}
	s.tickets[1] = domain.Ticket{
		ID:          1,
		Title:       "No puedo acceder al correo",
		Description: "Desde ayer la cuenta rechaza mi contraseña.",
		Status:      domain.TicketStatusPending,
		Priority:    domain.TicketPriorityHigh,
		Category:    "Correo electrónico",
		CreatedAt:   now.Add(-48 * time.Hour),
	}
	s.tickets[2] = domain.Ticket{
		ID:          2,
		Title:       "Impresora sin red",
		Description: "La impresora del segundo piso no aparece en la red.",
		Status:      domain.TicketStatusClosed,
		Priority:    domain.TicketPriorityLow,
		Category:    "Hardware",
		CreatedAt:   now.Add(-96 * time.Hour),
		Technician:  &domain.Technician{ID: 10, Name: "Laura Campos", Email: "laura.campos@example.com"},
	}
	s.addMessageLocked(1, 100, "Ana Ruiz", domain.RoleRequester, "Adjunto captura del error.", now.Add(-47*time.Hour))
	s.notifications = append(s.notifications, domain.Notification{
		ID:        s.nextNotifID,
		Title:     "Ticket actualizado",
		Body:      "Tu ticket #1 fue registrado.",
		TicketID:  int64Ptr(1),
		CreatedAt: now.Add(-47 * time.Hour),
	})
	s.nextNotifID++
	return s
}

// Tickets lists all tickets sorted by id.
func (s *Store) Tickets() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Messages returns the full message snapshot for a ticket.
func (s *Store) Messages(ticketID int64) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[ticketID]; !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	msgs := s.messages[ticketID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// AddMessage appends a reply to a ticket thread.
func (s *Store) AddMessage(ticketID, authorID int64, authorName string, role domain.Role, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return domain.Message{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if ticket.Status.IsTerminal() {
		return domain.Message{}, apperrors.NewTerminalStateError(string(ticket.Status))
	}
	if body == "" {
		return domain.Message{}, apperrors.NewValidationError("mensaje must not be empty", nil)
	}
	return s.addMessageLocked(ticketID, authorID, authorName, role, body, time.Now().UTC()), nil
}

// SetStatus moves a ticket to the given status. The stub mirrors the real
// backend's authority: it rejects unknown tokens but leaves the role policy
// to the client, matching the unrestricted status endpoint of the original.
func (s *Store) SetStatus(ticketID int64, status domain.TicketStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("unknown estado token", map[string]any{"estado": string(status)})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	ticket.Status = status
	s.tickets[ticketID] = ticket
	return nil
}

// SetAssignee assigns a roster technician, applying PENDIENTE to ASIGNADO in
// the same update.
func (s *Store) SetAssignee(ticketID, technicianID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if ticket.Status.IsTerminal() {
		return apperrors.NewTerminalStateError(string(ticket.Status))
	}
	var tech *domain.Technician
	for i := range s.technicians {
		if s.technicians[i].ID == technicianID {
			t := s.technicians[i]
			tech = &t
			break
		}
	}
	if tech == nil {
		return apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
	}
	ticket.Technician = tech
	if ticket.Status == domain.TicketStatusPending {
		ticket.Status = domain.TicketStatusAssigned
	}
	s.tickets[ticketID] = ticket
	return nil
}

// Technicians lists the assignable roster.
func (s *Store) Technicians() []domain.Technician {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Technician, len(s.technicians))
	copy(out, s.technicians)
	return out
}

// UnreadCount counts unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Notifications returns one page of notifications, newest first.
func (s *Store) Notifications(page, size int, unreadOnly bool) ([]domain.Notification, int, int64) {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if unreadOnly && n.Read {
			continue
		}
		filtered = append(filtered, n)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })

	total := int64(len(filtered))
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	start := page * size
	if start >= len(filtered) {
		return []domain.Notification{}, totalPages, total
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], totalPages, total
}

// MarkRead flips one notification to read. Read never reverts.
func (s *Store) MarkRead(notificationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == notificationID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
}

// MarkAllRead flips every notification to read.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
}

// AddNotification registers a notification; the stub emits one on every
// message so unread-count polling has something to observe.
func (s *Store) AddNotification(title, body string, ticketID *int64) domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := domain.Notification{
		ID:        s.nextNotifID,
		Title:     title,
		Body:      body,
		TicketID:  ticketID,
		CreatedAt: time.Now().UTC(),
	}
	s.nextNotifID++
	s.notifications = append(s.notifications, n)
	return n
}

func (s *Store) addMessageLocked(ticketID, authorID int64, authorName string, role domain.Role, body string, sentAt time.Time) domain.Message {
	msg := domain.Message{
		ID:         s.nextMessageID,
		TicketID:   ticketID,
		AuthorID:   authorID,
		AuthorName: authorName,
		AuthorRole: role,
		Body:       body,
		SentAt:     sentAt,
	}
	s.nextMessageID++
	s.messages[ticketID] = append(s.messages[ticketID], msg)
	return msg
}

func int64Ptr(v int64) *int64 {
	return &v
}
