package domain

import "time"

// ScheduledNotification é um alerta de "suprimento acabando" pendente para um item.
// Existe no máximo um por item; o ID segue o formato "<itemID>-initial".
type ScheduledNotification struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationID devolve o identificador do alerta inicial de um item.
func NotificationID(itemID string) string {
	return itemID + "-initial"
}

// WidgetItem é a linha serializada para o widget fora do processo.
type WidgetItem struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DaysUntilEmpty int       `json:"days_until_empty"`
	EmptyDate      time.Time `json:"empty_date"`
}

// WidgetSnapshot é o documento gravado para o widget.
type WidgetSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Items       []WidgetItem `json:"items"`
}
