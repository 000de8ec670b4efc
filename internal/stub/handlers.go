package stub

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/session"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// Handlers serves the helpdesk wire contract from the in-memory store.
type Handlers struct {
	store  *Store
	logger *zap.Logger
}

// NewHandlers constructs the handler set.
func NewHandlers(store *Store, logger *zap.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

func (h *Handlers) listTickets(c *fiber.Ctx) error {
	tickets := h.store.Tickets()
	out := make([]fiber.Map, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketJSON(t))
	}
	return c.JSON(out)
}

func (h *Handlers) listMessages(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.store.Messages(ticketID)
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageJSON(m))
	}
	return c.JSON(out)
}

func (h *Handlers) postMessage(c *fiber.Ctx) error {
	var req struct {
		TicketID int64  `json:"ticketId"`
		Body     string `json:"mensaje"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("malformed request body", nil)
	}

	caller := callerIdentity(c)
	msg, err := h.store.AddMessage(req.TicketID, caller.UserID, caller.Name, caller.Role, req.Body)
	if err != nil {
		return err
	}
	h.store.AddNotification("Nuevo mensaje", "Tienes una respuesta en el ticket.", &req.TicketID)
	return c.Status(fiber.StatusCreated).JSON(messageJSON(msg))
}

func (h *Handlers) setStatus(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	status := domain.TicketStatus(c.Query("estado"))
	if err := h.store.SetStatus(ticketID, status); err != nil {
		return err
	}
	h.logger.Info("stub status changed",
		zap.Int64("ticket_id", ticketID),
		zap.String("estado", string(status)))
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) assign(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	technicianID, err := strconv.ParseInt(c.Query("tecnicoId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("tecnicoId must be numeric", nil)
	}
	if err := h.store.SetAssignee(ticketID, technicianID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) listTechnicians(c *fiber.Ctx) error {
	techs := h.store.Technicians()
	out := make([]fiber.Map, 0, len(techs))
	for _, t := range techs {
		out = append(out, technicianJSON(t))
	}
	return c.JSON(out)
}

func (h *Handlers) listNotifications(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 10)
	unread := c.QueryBool("unread", false)

	items, totalPages, totalElements := h.store.Notifications(page, size, unread)
	content := make([]fiber.Map, 0, len(items))
	for _, n := range items {
		content = append(content, notificationJSON(n))
	}
	return c.JSON(fiber.Map{
		"content":       content,
		"totalPages":    totalPages,
		"totalElements": totalElements,
		"number":        page,
		"size":          size,
	})
}

func (h *Handlers) unreadCount(c *fiber.Ctx) error {
	return c.JSON(h.store.UnreadCount())
}

func (h *Handlers) markRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.MarkRead(id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) markAllRead(c *fiber.Ctx) error {
	h.store.MarkAllRead()
	return c.SendStatus(fiber.StatusOK)
}

// callerIdentity decodes the bearer token's claims for authorship. The stub
// accepts any well-formed token; unparseable ones fall back to a demo user.
func callerIdentity(c *fiber.Ctx) session.Session {
	token := bearerToken(c)
	sess, err := session.FromToken(token)
	if err != nil {
		return session.Session{UserID: 100, Name: "Usuario Demo", Role: domain.RoleRequester}
	}
	return sess
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name+" must be numeric", nil)
	}
	return id, nil
}

func ticketJSON(t domain.Ticket) fiber.Map {
	out := fiber.Map{
		"id":            t.ID,
		"titulo":        t.Title,
		"descripcion":   t.Description,
		"estado":        string(t.Status),
		"prioridad":     string(t.Priority),
		"categoria":     t.Category,
		"fechaCreacion": t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.Technician != nil {
		out["tecnico"] = technicianJSON(*t.Technician)
	}
	return out
}

func technicianJSON(t domain.Technician) fiber.Map {
	return fiber.Map{
		"id":      t.ID,
		"nombres": t.Name,
		"correo":  t.Email,
	}
}

func messageJSON(m domain.Message) fiber.Map {
	return fiber.Map{
		"id":          m.ID,
		"ticketId":    m.TicketID,
		"autorId":     m.AuthorID,
		"autorNombre": m.AuthorName,
		"autorRol":    string(m.AuthorRole),
		"mensaje":     m.Body,
		"fecha":       m.SentAt.UTC().Format(time.RFC3339),
	}
}

func notificationJSON(n domain.Notification) fiber.Map {
	out := fiber.Map{
		"id":            n.ID,
		"titulo":        n.Title,
		"mensaje":       n.Body,
		"leida":         n.Read,
		"fechaCreacion": n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.TicketID != nil {
		out["ticketId"] = *n.TicketID
	}
	return out
}
