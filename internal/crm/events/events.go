// Package events carries domain events from the controllers to the handlers
// registered at startup, either in process or through Kafka.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gartstein/minicrm/internal/crm/models"
	"go.uber.org/zap"
)

type EventType string

const (
	CompanyCreated EventType = "company_created"
)

// Actor is the authenticated user that caused an event.
type Actor struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	Type       EventType       `json:"type"`
	Company    *models.Company `json:"company"`
	Actor      Actor           `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewCompanyCreated builds the event published after a company is committed.
func NewCompanyCreated(company *models.Company, actor *models.User) Event {
	e := Event{Type: CompanyCreated, Company: company, OccurredAt: time.Now().UTC()}
	if actor != nil {
		e.Actor = Actor{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	}
	return e
}

func (e Event) companyID() uint {
	if e.Company == nil {
		return 0
	}
	return e.Company.ID
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(event Event)
}

type Handler func(ctx context.Context, event Event) error

// Handlers is an explicit registry of event handlers.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *zap.Logger
}

func NewHandlers(logger *zap.Logger) *Handlers {
	return &Handlers{
		handlers: make(map[EventType][]Handler),
		logger:   logger.Named("event_handlers"),
	}
}

func (h *Handlers) Subscribe(eventType EventType, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[eventType] = append(h.handlers[eventType], handler)
}

// Dispatch runs every handler of the event type. A failing handler does not
// stop the others; their errors are joined.
func (h *Handlers) Dispatch(ctx context.Context, event Event) error {
	h.mu.RLock()
	handlers := append([]Handler(nil), h.handlers[event.Type]...)
	h.mu.RUnlock()

	if len(handlers) == 0 {
		h.logger.Debug("no handlers for event", zap.String("event_type", string(event.Type)))
		return nil
	}

	var errs []error
	for i, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			h.logger.Error("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.Uint("company_id", event.companyID()),
			)
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
