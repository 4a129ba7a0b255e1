package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventIssueRequested     = "issue_requested"
	EventIssueStatusUpdated = "issue_status_updated"
)

// Event is the JSON frame pushed to websocket clients.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
	At   time.Time      `json:"at"`
}

func NewEvent(typ string, data map[string]any) Event {
	return Event{Type: typ, Data: data, At: time.Now().UTC()}
}

// Notifier delivers an event to every connection of a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ev Event) error
}

// HubNotifier delivers events through an in-process Hub.
type HubNotifier struct {
	Hub *Hub
}

// Notify is a no-op when userID has no live connection.
func (n HubNotifier) Notify(ctx context.Context, userID uuid.UUID, ev Event) error {
	if n.Hub.Connected(userID) == 0 {
		return nil
	}
	return n.Hub.SendToUser(userID, ev)
}
