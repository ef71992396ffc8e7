package notifyservice

import (
	"context"
	"time"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
)

// Publisher entrega o alerta vencido (Kafka + WebSocket, via events.Fanout).
type Publisher interface {
	Publish(ctx context.Context, event domain.SupplyEvent) error
}

// Dispatcher varre periodicamente os alertas vencidos e os publica.
type Dispatcher struct {
	store     Store
	publisher Publisher
	recorder  Recorder
	logger    logger.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewDispatcher cria o worker de entrega. recorder pode ser nil.
func NewDispatcher(store Store, pub Publisher, interval time.Duration, recorder Recorder, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		publisher: pub,
		recorder:  recorder,
		logger:    log,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

// WithClock troca o relógio (testes).
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Run executa DispatchDue a cada intervalo até ctx ser cancelado.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("Dispatcher de alertas iniciado.", map[string]interface{}{"interval": d.interval.String()})
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher de alertas encerrado.", nil)
			return
		case <-ticker.C:
			if _, err := d.DispatchDue(ctx); err != nil {
				d.logger.Error("Falha ao despachar alertas vencidos.", err)
			}
		}
	}
}

// DispatchDue reivindica os alertas vencidos e publica um evento supply.low_stock para cada um.
// Um alerta reivindicado não volta à fila mesmo se a publicação falhar (entrega no máximo uma vez).
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.store.ClaimDue(ctx, now, d.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		n := due[i]
		event := domain.SupplyEvent{
			Type:         domain.EventLowStock,
			ItemID:       n.ItemID,
			Notification: &n,
			Timestamp:    now,
		}
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Warn("Falha ao entregar alerta.", map[string]interface{}{"notification_id": n.ID, "error": err.Error()})
			continue
		}
		sent++
		if d.recorder != nil {
			d.recorder.NotificationDispatched()
		}
		d.logger.Info(n.Title, map[string]interface{}{"item_id": n.ItemID, "body": n.Body})
	}
	return sent, nil
}
