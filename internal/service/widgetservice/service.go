package widgetservice

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"gosupply/internal/depletion"
	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
)

// SnapshotKey é a chave do cache lida pelo widget fora do processo.
const SnapshotKey = "widget:top_items"

// ItemLister é a fatia do repositório de itens usada pelo widget.
type ItemLister interface {
	FindAll(ctx context.Context, filter domain.ListFilter) ([]domain.SupplyItem, error)
}

// Service mantém o snapshot dos itens mais próximos de acabar.
type Service struct {
	items     ItemLister
	cache     cache.Client
	estimator depletion.Estimator
	topN      int
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria o serviço do widget.
func NewService(items ItemLister, c cache.Client, est depletion.Estimator, topN int, log logger.Logger) *Service {
	return &Service{
		items:     items,
		cache:     c,
		estimator: est,
		topN:      topN,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock troca o relógio (testes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build ordena os itens pelos dias restantes (desempate por nome) e mantém os topN primeiros.
func (s *Service) Build(items []domain.SupplyItem, now time.Time) domain.WidgetSnapshot {
	rows := make([]domain.WidgetItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.WidgetItem{
			ID:             item.ID,
			Name:           item.Name,
			DaysUntilEmpty: s.estimator.DaysUntilEmpty(item, now),
			EmptyDate:      s.estimator.EstimatedEmptyDate(item),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DaysUntilEmpty == rows[j].DaysUntilEmpty {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].DaysUntilEmpty < rows[j].DaysUntilEmpty
	})
	if s.topN >= 0 && len(rows) > s.topN {
		rows = rows[:s.topN]
	}
	return domain.WidgetSnapshot{GeneratedAt: now, Items: rows}
}

// Refresh relê todos os itens e regrava o snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.items.FindAll(ctx, domain.ListFilter{})
	if err != nil {
		return err
	}
	return s.RefreshFrom(ctx, items)
}

// RefreshFrom regrava o snapshot a partir de uma listagem já carregada.
func (s *Service) RefreshFrom(ctx context.Context, items []domain.SupplyItem) error {
	snapshot := s.Build(items, s.now())
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar snapshot do widget.", err)
	}
	// Sem expiração: o snapshot vale até a próxima gravação.
	if err := s.cache.Set(ctx, SnapshotKey, payload, 0); err != nil {
		return err
	}
	s.logger.Debug("Snapshot do widget atualizado.", map[string]interface{}{"items": len(snapshot.Items)})
	return nil
}

// Snapshot lê o snapshot do cache; na ausência (ou se ilegível) recalcula e regrava.
func (s *Service) Snapshot(ctx context.Context) (domain.WidgetSnapshot, error) {
	raw, err := s.cache.Get(ctx, SnapshotKey)
	if err == nil {
		var snapshot domain.WidgetSnapshot
		if jsonErr := json.Unmarshal([]byte(raw), &snapshot); jsonErr == nil {
			return snapshot, nil
		}
		s.logger.Warn("Snapshot do widget corrompido no cache, recalculando.", nil)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Falha ao ler snapshot do widget, recalculando.", map[string]interface{}{"error": err.Error()})
	}

	items, err := s.items.FindAll(ctx, domain.ListFilter{})
	if err != nil {
		return domain.WidgetSnapshot{}, err
	}
	snapshot := s.Build(items, s.now())
	if err := s.RefreshFrom(ctx, items); err != nil {
		s.logger.Warn("Falha ao gravar snapshot do widget.", map[string]interface{}{"error": err.Error()})
	}
	return snapshot, nil
}

// Run regrava o snapshot a cada intervalo, para a contagem de dias acompanhar a virada do dia.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("Falha ao atualizar widget.", err)
			}
		}
	}
}
