package stub

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// NewApp builds the stub backend fiber application.
func NewApp(store *Store, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(errorHandlingMiddleware(logger))
	app.Use(requireBearer)

	handlers := NewHandlers(store, logger)
	registerRoutes(app, handlers)
	return app
}

func registerRoutes(app *fiber.App, h *Handlers) {
	tickets := app.Group("/tickets")
	tickets.Get("/historial", h.listTickets)
	tickets.Get("/:id/respuestas", h.listMessages)
	tickets.Post("/responder", h.postMessage)
	tickets.Put("/:id/estado", h.setStatus)
	tickets.Put("/:id/asignar", h.assign)

	app.Get("/usuarios/tecnicos", h.listTechnicians)

	notifications := app.Group("/notificaciones")
	notifications.Get("/unread-count", h.unreadCount)
	notifications.Get("/", h.listNotifications)
	notifications.Put("/leer-todas", h.markAllRead)
	notifications.Put("/:id/leer", h.markRead)
}

// requireBearer rejects requests without an Authorization header. The stub
// does not verify signatures; its job is exercising the client, not auth.
func requireBearer(c *fiber.Ctx) error {
	if bearerToken(c) == "" {
		return apperrors.NewDomainError("UNAUTHORIZED", "missing bearer token", fiber.StatusUnauthorized, nil)
	}
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func errorHandlingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		domainErr := apperrors.ToDomainError(err)
		response := fiber.Map{"error": fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}}
		if len(domainErr.Details) > 0 {
			response["error"].(fiber.Map)["details"] = domainErr.Details
		}
		if domainErr.HTTPStatus >= 500 {
			logger.Error("request failed", zap.Error(domainErr))
		}
		return c.Status(domainErr.HTTPStatus).JSON(response)
	}
}
