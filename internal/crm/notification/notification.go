// Package notification fans a CompanyCreated event out to every registered
// user over the mail and database channels.
package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/google/uuid"
)

const isoMillis = "2006-01-02T15:04:05.000000Z"

// CompanyCreated is the notification built from a CompanyCreated event.
type CompanyCreated struct {
	Company   *models.Company
	CreatedBy events.Actor
}

// Data is the payload stored by the database channel.
func (n *CompanyCreated) Data() models.CompanyCreatedData {
	return models.CompanyCreatedData{
		CompanyID:     n.Company.ID,
		CompanyName:   n.Company.Name,
		CompanyEmail:  n.Company.Email,
		CreatedByID:   n.CreatedBy.ID,
		CreatedByName: n.CreatedBy.Name,
		Action:        string(models.CompanyCreatedNotification),
		Message:       fmt.Sprintf(`New company "%s" was created by %s`, n.Company.Name, n.CreatedBy.Name),
		CreatedAt:     n.Company.CreatedAt.UTC().Format(isoMillis),
	}
}

// View is the wire shape of a persisted notification.
type View struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	ReadAt    *time.Time      `json:"read_at"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewView(n *models.Notification) View {
	data := json.RawMessage(n.Data)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return View{
		ID:        n.ID,
		Type:      string(n.Type),
		Data:      data,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
