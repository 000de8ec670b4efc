package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/config"
	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/events"
	"github.com/XxZARKx/lab-proyecto2/internal/lifecycle"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	"github.com/XxZARKx/lab-proyecto2/internal/rest"
	"github.com/XxZARKx/lab-proyecto2/internal/session"
	syncengine "github.com/XxZARKx/lab-proyecto2/internal/sync"
	"github.com/XxZARKx/lab-proyecto2/internal/view"
)

// consoleScroller satisfies view.ScrollPort for a terminal shell; there is no
// viewport to move, the jump is just acknowledged.
type consoleScroller struct{}

func (consoleScroller) ScrollToBottom() {
	fmt.Println("--- (saltando al final del hilo) ---")
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <ticket-id>", os.Args[0])
	}
	ticketID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatalf("ticket id must be numeric: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	sess, err := session.FromToken(cfg.Backend.Token)
	if err != nil {
		logger.Fatal("invalid HELPDESK_TOKEN", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := rest.NewClient(cfg.Backend, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	counter := syncengine.NewCounter(syncengine.CounterDependencies{
		Notifications: client,
		Interval:      cfg.Sync.NotificationInterval(),
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})
	counter.Start(ctx)
	defer counter.Close()

	dispatcher.Subscribe(events.EventUnreadChanged, func(_ context.Context, event events.Event) error {
		if payload, ok := event.UnreadChanged(); ok {
			fmt.Printf("*** notificaciones sin leer: %d\n", payload.Current)
		}
		return nil
	})

	ticketView, err := view.Open(ctx, ticketID, view.ViewDependencies{
		Tickets:    client,
		Directory:  client,
		Session:    sess,
		Machine:    lifecycle.StateMachine{},
		Dispatcher: dispatcher,
		Scroller:   consoleScroller{},
		Interval:   cfg.Sync.MessageInterval(),
		Scroll:     cfg.Scroll,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		logger.Fatal("failed to open ticket view", zap.Error(err))
	}
	defer ticketView.Close()

	dispatcher.Subscribe(events.EventMessageArrived, func(_ context.Context, event events.Event) error {
		printNewMessages(ticketView, event)
		return nil
	})

	ticket := ticketView.Ticket()
	fmt.Printf("Ticket #%d | %s [%s/%s]\n", ticket.ID, ticket.Title, ticket.Status, ticket.Priority)
	fmt.Println(`escribe un mensaje, "/estado <ESTADO>", "/asignar <tecnicoId>" o Ctrl+C para salir`)

	go readCommands(ctx, ticketView, logger)

	waitForShutdown(logger)
	for key, value := range metrics.Snapshot() {
		logger.Info("sync counter", zap.String("name", key), zap.Int64("value", value))
	}
}

func printNewMessages(ticketView *view.TicketView, event events.Event) {
	payload, ok := event.MessageArrived()
	if !ok {
		return
	}
	arrived := make(map[int64]struct{}, len(payload.NewIDs))
	for _, id := range payload.NewIDs {
		arrived[id] = struct{}{}
	}
	for _, msg := range ticketView.Messages() {
		if _, ok := arrived[msg.ID]; !ok {
			continue
		}
		fmt.Printf("[%s] %s (%s): %s\n",
			msg.SentAt.Local().Format("15:04"), msg.AuthorName, msg.AuthorRole, msg.Body)
	}
}

func readCommands(ctx context.Context, ticketView *view.TicketView, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/estado "):
			status := domain.TicketStatus(strings.TrimSpace(strings.TrimPrefix(line, "/estado ")))
			if err := ticketView.Transition(ctx, status); err != nil {
				fmt.Printf("!! %v\n", err)
				continue
			}
			fmt.Printf("estado confirmado: %s\n", ticketView.Ticket().Status)
		case strings.HasPrefix(line, "/asignar "):
			techID, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/asignar ")), 10, 64)
			if err != nil {
				fmt.Println("!! tecnicoId must be numeric")
				continue
			}
			if err := ticketView.Assign(ctx, techID); err != nil {
				fmt.Printf("!! %v\n", err)
				continue
			}
			ticket := ticketView.Ticket()
			fmt.Printf("asignado a %s (estado %s)\n", ticket.Technician.Name, ticket.Status)
		default:
			if err := ticketView.Send(ctx, line); err != nil {
				// mutating-action failures surface inline with a retry hint
				fmt.Printf("!! no se pudo enviar (%v), vuelve a intentarlo\n", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stdin closed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
