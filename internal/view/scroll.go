package view

import (
	"context"
	gosync "sync"

	"github.com/XxZARKx/lab-proyecto2/internal/config"
	"github.com/XxZARKx/lab-proyecto2/internal/events"
)

// ScrollPort abstracts the message viewport of whatever shell hosts the
// client (terminal pager, web view, test double).
type ScrollPort interface {
	ScrollToBottom()
}

// Attention decides, on every batch of newly arrived messages, between
// auto-scrolling and showing a new-message affordance. A viewer pinned near
// the bottom wants to follow the conversation; one who scrolled up is
// reading history and must not be yanked down.
//
// The affordance uses its own threshold (default 100px) independent of the
// pin threshold (default 150px) so the indicator does not flicker right at
// the pin boundary.
type Attention struct {
	mu                  gosync.Mutex
	scroller            ScrollPort
	pinThreshold        float64
	affordanceThreshold float64
	distance            float64
	showAffordance      bool
}

// NewAttention constructs the controller.
func NewAttention(scroller ScrollPort, cfg config.ScrollConfig) *Attention {
	pin := cfg.PinThreshold
	if pin <= 0 {
		pin = 150
	}
	affordance := cfg.AffordanceThreshold
	if affordance <= 0 {
		affordance = 100
	}
	return &Attention{
		scroller:            scroller,
		pinThreshold:        pin,
		affordanceThreshold: affordance,
	}
}

// Bind subscribes the controller to the message-arrival events.
func (a *Attention) Bind(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventMessageArrived, a.handleArrival)
}

// SetDistance records the viewer's distance from the bottom, recomputed on
// every scroll event, and updates the affordance accordingly.
func (a *Attention) SetDistance(px float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.distance = px
	a.showAffordance = px > a.affordanceThreshold
}

// Pinned reports whether the viewer is close enough to the bottom to follow
// new arrivals.
func (a *Attention) Pinned() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.distance < a.pinThreshold
}

// ShowAffordance reports whether the new-message indicator is visible.
func (a *Attention) ShowAffordance() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.showAffordance
}

// ScrollToBottom performs the manual jump. It always clears the affordance,
// whatever the current distance.
func (a *Attention) ScrollToBottom() {
	a.mu.Lock()
	a.distance = 0
	a.showAffordance = false
	scroller := a.scroller
	a.mu.Unlock()
	if scroller != nil {
		scroller.ScrollToBottom()
	}
}

func (a *Attention) handleArrival(ctx context.Context, event events.Event) error {
	payload, ok := event.MessageArrived()
	if !ok || len(payload.NewIDs) == 0 {
		return nil
	}

	a.mu.Lock()
	pinned := a.distance < a.pinThreshold
	firstLoad := payload.PreviousCount <= 1
	if pinned || firstLoad {
		a.distance = 0
		a.showAffordance = false
		scroller := a.scroller
		a.mu.Unlock()
		if scroller != nil {
			scroller.ScrollToBottom()
		}
		return nil
	}
	a.showAffordance = true
	a.mu.Unlock()
	return nil
}
