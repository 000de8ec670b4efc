package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/config"
	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// TicketAPI is the Ticket Service surface consumed by the client core.
type TicketAPI interface {
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ListMessages(ctx context.Context, ticketID int64) ([]domain.Message, error)
	PostMessage(ctx context.Context, ticketID int64, body string) error
	SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error
	SetAssignee(ctx context.Context, ticketID, technicianID int64) error
}

// NotificationAPI is the Notification Service surface.
type NotificationAPI interface {
	UnreadCount(ctx context.Context) (int, error)
	ListNotifications(ctx context.Context, query NotificationQuery) (*NotificationPage, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context) error
}

// DirectoryAPI is the Personnel Directory surface.
type DirectoryAPI interface {
	ListTechnicians(ctx context.Context) ([]domain.Technician, error)
}

// Client talks to the helpdesk backend over HTTP. It attaches the bearer
// credential to every request but never stores or refreshes it beyond what
// configuration supplied.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ TicketAPI = (*Client)(nil)
var _ NotificationAPI = (*Client)(nil)
var _ DirectoryAPI = (*Client)(nil)

// NewClient constructs a backend client.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

// ListTickets returns every ticket visible to the caller.
func (c *Client) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	var dtos []ticketDTO
	if err := c.do(ctx, http.MethodGet, "/tickets/historial", nil, nil, &dtos); err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(dtos))
	for _, dto := range dtos {
		tickets = append(tickets, dto.toDomain())
	}
	return tickets, nil
}

// GetTicket looks a ticket up by id. The backend exposes no single-ticket
// endpoint, so this filters the visible listing.
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	tickets, err := c.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == ticketID {
			return &tickets[i], nil
		}
	}
	return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
}

// ListMessages fetches the full message snapshot for a ticket.
func (c *Client) ListMessages(ctx context.Context, ticketID int64) ([]domain.Message, error) {
	var dtos []messageDTO
	path := fmt.Sprintf("/tickets/%d/respuestas", ticketID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &dtos); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(dtos))
	for _, dto := range dtos {
		msgs = append(msgs, dto.toDomain(ticketID))
	}
	return msgs, nil
}

// PostMessage appends a reply to the thread.
func (c *Client) PostMessage(ctx context.Context, ticketID int64, body string) error {
	payload := postMessageRequest{TicketID: ticketID, Body: body}
	return c.do(ctx, http.MethodPost, "/tickets/responder", nil, payload, nil)
}

// SetStatus asks the backend to move the ticket to the given status.
func (c *Client) SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	path := fmt.Sprintf("/tickets/%d/estado", ticketID)
	query := url.Values{"estado": []string{string(status)}}
	return c.do(ctx, http.MethodPut, path, query, nil, nil)
}

// SetAssignee asks the backend to assign the ticket to a technician.
func (c *Client) SetAssignee(ctx context.Context, ticketID, technicianID int64) error {
	path := fmt.Sprintf("/tickets/%d/asignar", ticketID)
	query := url.Values{"tecnicoId": []string{strconv.FormatInt(technicianID, 10)}}
	return c.do(ctx, http.MethodPut, path, query, nil, nil)
}

// ListTechnicians returns the assignable roster.
func (c *Client) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	var dtos []technicianDTO
	if err := c.do(ctx, http.MethodGet, "/usuarios/tecnicos", nil, nil, &dtos); err != nil {
		return nil, err
	}
	techs := make([]domain.Technician, 0, len(dtos))
	for _, dto := range dtos {
		techs = append(techs, dto.toDomain())
	}
	return techs, nil
}

// UnreadCount fetches the global unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/notificaciones/unread-count", nil, nil, &count); err != nil {
		return 0, err
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// ListNotifications fetches one page of notifications.
func (c *Client) ListNotifications(ctx context.Context, q NotificationQuery) (*NotificationPage, error) {
	query := url.Values{
		"page":   []string{strconv.Itoa(q.Page)},
		"size":   []string{strconv.Itoa(q.Size)},
		"unread": []string{strconv.FormatBool(q.UnreadOnly)},
	}
	var dto notificationPageDTO
	if err := c.do(ctx, http.MethodGet, "/notificaciones", query, nil, &dto); err != nil {
		return nil, err
	}
	page := &NotificationPage{
		Items:         make([]domain.Notification, 0, len(dto.Content)),
		Page:          dto.Number,
		Size:          dto.Size,
		TotalPages:    dto.TotalPages,
		TotalElements: dto.TotalElements,
	}
	for _, item := range dto.Content {
		page.Items = append(page.Items, item.toDomain())
	}
	return page, nil
}

// MarkRead marks a single notification as read.
func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	path := fmt.Sprintf("/notificaciones/%d/leer", notificationID)
	return c.do(ctx, http.MethodPut, path, nil, nil, nil)
}

// MarkAllRead marks every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notificaciones/leer-todas", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFound("resource", map[string]any{"path": path})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return apperrors.NewNetworkError(
			fmt.Sprintf("%s %s: backend returned %d: %s", method, path, resp.StatusCode, string(snippet)), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("%s %s: malformed response body", method, path), err)
	}
	return nil
}
