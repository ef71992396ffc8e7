package notifyservice

import (
	"context"
	"fmt"
	"time"

	"gosupply/internal/depletion"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
)

// Conteúdo do alerta de suprimento acabando.
const (
	LowStockTitle    = "Suprimento acabando"
	lowStockBodyTmpl = "%s acabará em %d dias"
)

// Store é o contrato de persistência dos alertas agendados.
//
// Replace troca, de forma atômica, o alerta pendente do item pelo calculado a partir
// da versão itemVersion (n nil só remove). Versões mais antigas que a última aplicada
// são ignoradas e devolvem false, já que os agendamentos rodam fora da seção
// serializada do item e podem chegar fora de ordem.
type Store interface {
	Replace(ctx context.Context, itemID string, itemVersion int, n *domain.ScheduledNotification) (bool, error)
	DeleteByItem(ctx context.Context, itemID string) error
	ListPending(ctx context.Context) ([]domain.ScheduledNotification, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error)
}

// Recorder recebe contadores de alertas (implementado por metrics.Metrics).
type Recorder interface {
	NotificationScheduled()
	NotificationDispatched()
}

// Scheduler decide se e quando avisar que um item vai acabar.
// A janela padrão vem da configuração, nunca de estado global.
type Scheduler struct {
	store       Store
	estimator   depletion.Estimator
	defaultDays int
	recorder    Recorder
	logger      logger.Logger
	now         func() time.Time
}

// NewScheduler cria o agendador. recorder pode ser nil.
func NewScheduler(store Store, est depletion.Estimator, defaultDays int, recorder Recorder, log logger.Logger) *Scheduler {
	return &Scheduler{
		store:       store,
		estimator:   est,
		defaultDays: defaultDays,
		recorder:    recorder,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock troca o relógio (testes).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Plan calcula o alerta para o item, sem I/O.
// Itens pedidos não recebem alerta; o alerta só existe se ainda faltarem mais dias
// que a janela, e dispara no início do dia emptyDate - janela.
func (s *Scheduler) Plan(item domain.SupplyItem, now time.Time) (domain.ScheduledNotification, bool) {
	if item.IsOnOrder {
		return domain.ScheduledNotification{}, false
	}

	notificationDays := s.defaultDays
	if item.NotifyThresholdDays != nil {
		notificationDays = *item.NotifyThresholdDays
	}

	if s.estimator.DaysUntilEmpty(item, now) <= notificationDays {
		return domain.ScheduledNotification{}, false
	}

	emptyDate := s.estimator.EstimatedEmptyDate(item)
	return domain.ScheduledNotification{
		ID:        domain.NotificationID(item.ID),
		ItemID:    item.ID,
		Title:     LowStockTitle,
		Body:      fmt.Sprintf(lowStockBodyTmpl, item.Name, notificationDays),
		FireAt:    s.estimator.StartOfDay(emptyDate.AddDate(0, 0, -notificationDays)),
		CreatedAt: now,
	}, true
}

// Schedule substitui o alerta pendente do item pelo calculado para este snapshot.
// Um snapshot mais antigo que o último agendado não altera nada.
func (s *Scheduler) Schedule(ctx context.Context, item domain.SupplyItem) error {
	n, ok := s.Plan(item, s.now())
	var next *domain.ScheduledNotification
	if ok {
		next = &n
	}

	applied, err := s.store.Replace(ctx, item.ID, item.Version, next)
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Debug("Snapshot antigo do item ignorado pelo agendador.", map[string]interface{}{"item_id": item.ID, "version": item.Version})
		return nil
	}
	if !ok {
		s.logger.Debug("Nenhum alerta agendado para o item.", map[string]interface{}{"item_id": item.ID, "is_on_order": item.IsOnOrder})
		return nil
	}
	if s.recorder != nil {
		s.recorder.NotificationScheduled()
	}
	s.logger.Info("Alerta de suprimento agendado.", map[string]interface{}{"item_id": item.ID, "fire_at": n.FireAt})
	return nil
}

// Cancel remove o alerta pendente do item.
func (s *Scheduler) Cancel(ctx context.Context, itemID string) error {
	return s.store.DeleteByItem(ctx, itemID)
}

// Pending lista os alertas ainda não disparados.
func (s *Scheduler) Pending(ctx context.Context) ([]domain.ScheduledNotification, error) {
	return s.store.ListPending(ctx)
}
