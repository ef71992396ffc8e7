package domain

import "time"

// EventType identifica o que aconteceu com um item.
type EventType string

const (
	EventItemCreated        EventType = "supply.created"
	EventItemUpdated        EventType = "supply.updated"
	EventItemDeleted        EventType = "supply.deleted"
	EventItemUsed           EventType = "supply.used"
	EventItemRestocked      EventType = "supply.restocked"
	EventOrderStatusChanged EventType = "supply.order_status_changed"
	EventLowStock           EventType = "supply.low_stock"
)

// SupplyEvent é publicado no Kafka e enviado aos assinantes WebSocket.
type SupplyEvent struct {
	Type         EventType              `json:"type"`
	ItemID       string                 `json:"item_id"`
	Item         *ItemView              `json:"item,omitempty"`
	Notification *ScheduledNotification `json:"notification,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}
