package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Notification outcomes
const (
	NotificationSent        = "sent"
	NotificationSkipped     = "skipped"
	NotificationUndelivered = "undelivered"
)

// Dispatcher delivers user notifications over the live feed
type Dispatcher struct {
	cm    *ConnectionManager
	clock clockwork.Clock
}

func NewDispatcher(cm *ConnectionManager, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{cm: cm, clock: clock}
}

// Notify sends title and body to userID when enabled is true. A user with no
// open connection simply misses the notification.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, enabled bool, title, body string) error {
	outcome := d.notify(userID, enabled, title, body)
	if d.cm.observer != nil {
		d.cm.observer.Notification(outcome)
	}
	return nil
}

func (d *Dispatcher) notify(userID uuid.UUID, enabled bool, title, body string) string {
	if !enabled {
		return NotificationSkipped
	}
	if !d.cm.IsConnected(userID) {
		log.Debug().Str("user_id", userID.String()).Msg("no live connection for notification")
		return NotificationUndelivered
	}

	d.cm.SendToUser(userID, Message{
		Type:      MessageNotification,
		Timestamp: d.clock.Now().UTC(),
		Data:      NotificationData{Title: title, Body: body},
	})
	return NotificationSent
}
