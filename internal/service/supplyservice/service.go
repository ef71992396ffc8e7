package supplyservice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gosupply/internal/depletion"
	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
)

// Repository é o contrato de persistência dos itens.
// Mutate executa fn com o estado mais recente do item, serializado por id.
type Repository interface {
	FindByID(ctx context.Context, id string) (domain.SupplyItem, error)
	Save(ctx context.Context, item domain.SupplyItem) (domain.SupplyItem, error)
	FindAll(ctx context.Context, filter domain.ListFilter) ([]domain.SupplyItem, error)
	Mutate(ctx context.Context, id string, fn domain.MutateFunc) (domain.SupplyItem, error)
	Delete(ctx context.Context, id string) error
}

// Scheduler agenda ou cancela o alerta de um item (notifyservice.Scheduler).
type Scheduler interface {
	Schedule(ctx context.Context, item domain.SupplyItem) error
	Cancel(ctx context.Context, itemID string) error
}

// Publisher publica eventos de item (events.Fanout).
type Publisher interface {
	Publish(ctx context.Context, event domain.SupplyEvent) error
}

// Widget regrava o snapshot do widget (widgetservice.Service).
type Widget interface {
	Refresh(ctx context.Context) error
	RefreshFrom(ctx context.Context, items []domain.SupplyItem) error
}

// Recorder recebe as métricas de domínio (metrics.Metrics).
type Recorder interface {
	UsageRecorded(outcome string)
	DurationLearned(days float64)
	Restocked()
	OrderStatusChanged(ordered bool)
}

// Service orquestra o estimador, o repositório e os colaboradores.
type Service struct {
	repo      Repository
	estimator depletion.Estimator
	logger    logger.Logger
	now       func() time.Time

	scheduler Scheduler
	publisher Publisher
	widget    Widget
	recorder  Recorder
}

// Option configura colaboradores opcionais do Service.
type Option func(*Service)

func WithScheduler(s Scheduler) Option { return func(svc *Service) { svc.scheduler = s } }
func WithPublisher(p Publisher) Option { return func(svc *Service) { svc.publisher = p } }
func WithWidget(w Widget) Option       { return func(svc *Service) { svc.widget = w } }
func WithRecorder(r Recorder) Option   { return func(svc *Service) { svc.recorder = r } }

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// NewService cria o serviço de itens. Colaboradores ausentes são simplesmente ignorados.
func NewService(repo Repository, est depletion.Estimator, log logger.Logger, opts ...Option) *Service {
	svc := &Service{
		repo:      repo,
		estimator: est,
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateItem valida a entrada, aplica os padrões e grava um novo item.
func (s *Service) CreateItem(ctx context.Context, in domain.ItemInput) (domain.ItemView, error) {
	if err := validateInput(in); err != nil {
		return domain.ItemView{}, err
	}

	now := s.now()
	item := domain.SupplyItem{
		ID:                       uuid.NewString(),
		CreatedDate:              now,
		RestockSize:              domain.DefaultRestockSize,
		DurationAdjustmentFactor: domain.DefaultDurationAdjustmentFactor,
		MinimumUpdateFraction:    domain.DefaultMinimumUpdateFraction,
	}
	applyInput(&item, in)
	if in.LastUsedAt == nil {
		item.LastUsedAt = item.CreatedDate
	}

	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		return domain.ItemView{}, err
	}

	s.logger.Info("Item criado.", map[string]interface{}{"item_id": saved.ID, "name": saved.Name})
	return s.afterCommit(ctx, domain.EventItemCreated, saved), nil
}

// GetItem busca um item e calcula os campos derivados.
func (s *Service) GetItem(ctx context.Context, id string) (domain.ItemView, error) {
	if err := validateID(id); err != nil {
		return domain.ItemView{}, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ItemView{}, err
	}
	return s.estimator.Describe(item, s.now()), nil
}

// ListItems lista os itens com os campos derivados.
// Filtro por limite e ordenação por data de esgotamento dependem do estimador e são feitos aqui.
func (s *Service) ListItems(ctx context.Context, filter domain.ListFilter) ([]domain.ItemView, error) {
	switch filter.Sort {
	case "", domain.SortByCreatedDesc, domain.SortByName, domain.SortByEmptyDate:
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("Ordenação inválida: '%s'.", filter.Sort))
	}

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]domain.ItemView, 0, len(items))
	for _, item := range items {
		view := s.estimator.Describe(item, now)
		if filter.OnlyUnderThreshold && !view.IsUnderThreshold {
			continue
		}
		views = append(views, view)
	}

	if filter.Sort == domain.SortByEmptyDate {
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].EstimatedEmptyDate.Before(views[j].EstimatedEmptyDate)
		})
	}

	// Só a listagem completa alimenta o widget.
	if s.widget != nil && filter.NameContains == "" && !filter.OnlyOnOrder {
		if err := s.widget.RefreshFrom(ctx, items); err != nil {
			s.logger.Warn("Falha ao atualizar widget após listagem.", map[string]interface{}{"error": err.Error()})
		}
	}

	return views, nil
}

// UpdateItem substitui os campos editáveis do item, mantendo o status de pedido.
func (s *Service) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (domain.ItemView, error) {
	if err := validateID(id); err != nil {
		return domain.ItemView{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.ItemView{}, err
	}

	updated, err := s.repo.Mutate(ctx, id, func(current domain.SupplyItem) (domain.SupplyItem, bool, error) {
		next := current
		applyInput(&next, in)
		return next, true, nil
	})
	if err != nil {
		return domain.ItemView{}, err
	}

	s.logger.Info("Item atualizado.", map[string]interface{}{"item_id": id})
	return s.afterCommit(ctx, domain.EventItemUpdated, updated), nil
}

// DeleteItem remove o item e cancela o alerta pendente.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Item removido.", map[string]interface{}{"item_id": id})
	if s.scheduler != nil {
		if err := s.scheduler.Cancel(ctx, id); err != nil {
			s.logger.Warn("Falha ao cancelar alerta do item removido.", map[string]interface{}{"item_id": id, "error": err.Error()})
		}
	}
	s.publish(ctx, domain.SupplyEvent{Type: domain.EventItemDeleted, ItemID: id, Timestamp: s.now()})
	s.refreshWidget(ctx)
	return nil
}

// UseItem registra o consumo de uma unidade.
// Um uso cedo demais sem forceConfirm não grava nada e devolve RequiresConfirmation=true.
func (s *Service) UseItem(ctx context.Context, id string, forceConfirm bool) (domain.UsageResult, error) {
	if err := validateID(id); err != nil {
		return domain.UsageResult{}, err
	}

	var (
		requiresConfirmation bool
		learned              bool
	)
	item, err := s.repo.Mutate(ctx, id, func(current domain.SupplyItem) (domain.SupplyItem, bool, error) {
		next, needsConfirmation := s.estimator.RecordUsage(current, s.now(), forceConfirm)
		requiresConfirmation = needsConfirmation
		learned = next.DurationPerUnit != current.DurationPerUnit
		return next, !needsConfirmation, nil
	})
	if err != nil {
		return domain.UsageResult{}, err
	}

	if requiresConfirmation {
		s.recordUsage(metrics.OutcomeConfirmationRequired)
		s.logger.Debug("Uso exige confirmação.", map[string]interface{}{"item_id": id})
		return domain.UsageResult{Item: s.estimator.Describe(item, s.now()), RequiresConfirmation: true}, nil
	}

	s.recordUsage(metrics.OutcomeCommitted)
	if learned && s.recorder != nil {
		s.recorder.DurationLearned(item.DurationPerUnit)
	}
	s.logger.Info("Uso registrado.", map[string]interface{}{
		"item_id": id, "quantity": item.Quantity, "duration_per_unit": item.DurationPerUnit,
	})
	return domain.UsageResult{Item: s.afterCommit(ctx, domain.EventItemUsed, item)}, nil
}

// StockUp soma restockSize à quantidade e limpa o status de pedido.
func (s *Service) StockUp(ctx context.Context, id string) (domain.ItemView, error) {
	if err := validateID(id); err != nil {
		return domain.ItemView{}, err
	}

	item, err := s.repo.Mutate(ctx, id, func(current domain.SupplyItem) (domain.SupplyItem, bool, error) {
		return depletion.Restock(current), true, nil
	})
	if err != nil {
		return domain.ItemView{}, err
	}

	if s.recorder != nil {
		s.recorder.Restocked()
	}
	s.logger.Info("Item reabastecido.", map[string]interface{}{"item_id": id, "quantity": item.Quantity})
	return s.afterCommit(ctx, domain.EventItemRestocked, item), nil
}

// SetOrderStatus marca ou desmarca o item como pedido.
func (s *Service) SetOrderStatus(ctx context.Context, id string, isOrdered bool) (domain.ItemView, error) {
	if err := validateID(id); err != nil {
		return domain.ItemView{}, err
	}

	item, err := s.repo.Mutate(ctx, id, func(current domain.SupplyItem) (domain.SupplyItem, bool, error) {
		return depletion.SetOrderStatus(current, isOrdered), true, nil
	})
	if err != nil {
		return domain.ItemView{}, err
	}

	if s.recorder != nil {
		s.recorder.OrderStatusChanged(isOrdered)
	}
	s.logger.Info("Status de pedido alterado.", map[string]interface{}{"item_id": id, "is_on_order": isOrdered})
	return s.afterCommit(ctx, domain.EventOrderStatusChanged, item), nil
}

// afterCommit repassa o item gravado aos colaboradores. Falhas só são logadas.
func (s *Service) afterCommit(ctx context.Context, eventType domain.EventType, item domain.SupplyItem) domain.ItemView {
	now := s.now()
	view := s.estimator.Describe(item, now)

	if s.scheduler != nil {
		if err := s.scheduler.Schedule(ctx, item); err != nil {
			s.logger.Warn("Falha ao agendar alerta.", map[string]interface{}{"item_id": item.ID, "error": err.Error()})
		}
	}
	s.publish(ctx, domain.SupplyEvent{Type: eventType, ItemID: item.ID, Item: &view, Timestamp: now})
	s.refreshWidget(ctx)
	return view
}

func (s *Service) publish(ctx context.Context, event domain.SupplyEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Falha ao publicar evento.", map[string]interface{}{"type": string(event.Type), "item_id": event.ItemID, "error": err.Error()})
	}
}

func (s *Service) refreshWidget(ctx context.Context) {
	if s.widget == nil {
		return
	}
	if err := s.widget.Refresh(ctx); err != nil {
		s.logger.Warn("Falha ao atualizar widget.", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) recordUsage(outcome string) {
	if s.recorder != nil {
		s.recorder.UsageRecorded(outcome)
	}
}

// applyInput copia a entrada para o item; ponteiros nil mantêm o valor atual,
// exceto notifyThresholdDays, em que nil volta ao padrão global.
func applyInput(item *domain.SupplyItem, in domain.ItemInput) {
	item.Name = strings.TrimSpace(in.Name)
	item.Quantity = in.Quantity
	item.DurationPerUnit = in.DurationPerUnit
	item.NotifyThresholdDays = in.NotifyThresholdDays
	if in.CreatedDate != nil {
		item.CreatedDate = *in.CreatedDate
	}
	if in.LastUsedAt != nil {
		item.LastUsedAt = *in.LastUsedAt
	}
	if in.RestockSize != nil {
		item.RestockSize = *in.RestockSize
	}
	if in.DurationAdjustmentFactor != nil {
		item.DurationAdjustmentFactor = *in.DurationAdjustmentFactor
	}
	if in.MinimumUpdateFraction != nil {
		item.MinimumUpdateFraction = *in.MinimumUpdateFraction
	}
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("ID de item inválido: '%s'.", id))
	}
	return nil
}

func validateInput(in domain.ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.NewValidationError("O nome do item é obrigatório.")
	}
	if in.Quantity < 0 {
		return apperror.NewValidationError("A quantidade não pode ser negativa.")
	}
	if in.Quantity > domain.MaxQuantity {
		return apperror.NewValidationError(fmt.Sprintf("A quantidade não pode passar de %d.", domain.MaxQuantity))
	}
	if !(in.DurationPerUnit > 0) {
		return apperror.NewValidationError("A duração por unidade deve ser maior que zero.")
	}
	if in.DurationPerUnit > domain.MaxDurationPerUnit {
		return apperror.NewValidationError(fmt.Sprintf("A duração por unidade não pode passar de %.0f dias.", domain.MaxDurationPerUnit))
	}
	if in.NotifyThresholdDays != nil && *in.NotifyThresholdDays < 0 {
		return apperror.NewValidationError("O limite de aviso não pode ser negativo.")
	}
	if in.RestockSize != nil && (*in.RestockSize <= 0 || *in.RestockSize > domain.MaxQuantity) {
		return apperror.NewValidationError(fmt.Sprintf("O tamanho da reposição deve estar entre 1 e %d.", domain.MaxQuantity))
	}
	if in.DurationAdjustmentFactor != nil && !inUnitInterval(*in.DurationAdjustmentFactor) {
		return apperror.NewValidationError("O fator de ajuste deve estar em (0, 1].")
	}
	if in.MinimumUpdateFraction != nil && !inUnitInterval(*in.MinimumUpdateFraction) {
		return apperror.NewValidationError("A fração mínima deve estar em (0, 1].")
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}
