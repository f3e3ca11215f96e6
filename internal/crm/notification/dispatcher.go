package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"go.uber.org/zap"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Dispatcher handles CompanyCreated events: every registered user gets the
// notification on every channel. Channels and recipients fail independently.
type Dispatcher struct {
	users      UserLister
	channels   []Channel
	retries    uint64
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

func NewDispatcher(users UserLister, retries int, logger *zap.Logger, channels ...Channel) *Dispatcher {
	if retries < 0 {
		retries = 0
	}
	return &Dispatcher{
		users:    users,
		channels: channels,
		retries:  uint64(retries),
		logger:   logger.Named("notification"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// Register subscribes the dispatcher to the events it handles.
func (d *Dispatcher) Register(handlers *events.Handlers) {
	handlers.Subscribe(events.CompanyCreated, d.HandleCompanyCreated)
}

// recipients resolves who is told about a new company. An empty user table
// falls back to the same query, so nobody is notified.
func (d *Dispatcher) recipients(ctx context.Context) ([]models.User, error) {
	users, err := d.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return d.users.ListUsers(ctx)
	}
	return users, nil
}

func (d *Dispatcher) HandleCompanyCreated(ctx context.Context, event events.Event) error {
	if event.Company == nil {
		return fmt.Errorf("company_created event without company")
	}
	n := &CompanyCreated{Company: event.Company, CreatedBy: event.Actor}

	users, err := d.recipients(ctx)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(users) == 0 {
		d.logger.Info("no recipients for company notification", zap.Uint("company_id", n.Company.ID))
		return nil
	}

	failures := 0
	for i := range users {
		recipient := &users[i]
		for _, ch := range d.channels {
			if err := d.deliver(ctx, ch, recipient, n); err != nil {
				failures++
				d.logger.Error("notification delivery failed",
					zap.Error(err),
					zap.String("channel", ch.Name()),
					zap.Uint("recipient_id", recipient.ID),
					zap.Uint("company_id", n.Company.ID),
				)
			}
		}
	}

	d.logger.Info("company notification dispatched",
		zap.Uint("company_id", n.Company.ID),
		zap.Int("recipients", len(users)),
		zap.Int("failures", failures),
	)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, recipient *models.User, n *CompanyCreated) error {
	op := func() error {
		return ch.Deliver(ctx, recipient, n)
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Warn("retrying notification delivery",
			zap.Error(err),
			zap.String("channel", ch.Name()),
			zap.Uint("recipient_id", recipient.ID),
			zap.Duration("wait", wait),
		)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), d.retries), ctx)
	return backoff.RetryNotify(op, policy, notify)
}
