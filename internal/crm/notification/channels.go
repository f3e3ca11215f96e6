package notification

import (
	"context"
	"encoding/json"

	"github.com/gartstein/minicrm/internal/crm/models"
	"gorm.io/datatypes"
)

// Channel delivers a notification to one recipient.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, recipient *models.User, n *CompanyCreated) error
}

// MailChannel renders and sends the notification mail.
type MailChannel struct {
	mailer   Mailer
	renderer *Renderer
}

func NewMailChannel(mailer Mailer, renderer *Renderer) *MailChannel {
	return &MailChannel{mailer: mailer, renderer: renderer}
}

func (c *MailChannel) Name() string { return "mail" }

func (c *MailChannel) Deliver(ctx context.Context, recipient *models.User, n *CompanyCreated) error {
	msg, err := c.renderer.CompanyCreated(ctx, recipient.Name, n)
	if err != nil {
		return err
	}
	msg.To = recipient.Email
	msg.ToName = recipient.Name
	return c.mailer.Send(ctx, msg)
}

type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Pusher forwards stored notifications to live clients.
type Pusher interface {
	Push(userID uint, message interface{})
}

// DatabaseChannel persists the notification and pushes it to connected
// clients of the recipient.
type DatabaseChannel struct {
	store  Store
	pusher Pusher
}

func NewDatabaseChannel(store Store, pusher Pusher) *DatabaseChannel {
	return &DatabaseChannel{store: store, pusher: pusher}
}

func (c *DatabaseChannel) Name() string { return "database" }

func (c *DatabaseChannel) Deliver(ctx context.Context, recipient *models.User, n *CompanyCreated) error {
	payload, err := json.Marshal(n.Data())
	if err != nil {
		return err
	}
	record := &models.Notification{
		Type:        models.CompanyCreatedNotification,
		RecipientID: recipient.ID,
		Data:        datatypes.JSON(payload),
	}
	if err := c.store.CreateNotification(ctx, record); err != nil {
		return err
	}
	if c.pusher != nil {
		c.pusher.Push(recipient.ID, LiveMessage{Type: "notification", Notification: NewView(record)})
	}
	return nil
}

// LiveMessage is written to websocket clients.
type LiveMessage struct {
	Type         string `json:"type"`
	Notification View   `json:"notification"`
}
