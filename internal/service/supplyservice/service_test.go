package supplyservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosupply/internal/depletion"
	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/service/supplyservice"
)

// MockRepository é uma implementação mock de supplyservice.Repository.
// Mutate roda a função recebida sobre o item configurado e guarda o que seria gravado.
type MockRepository struct {
	mock.Mock
	written []domain.SupplyItem
}

func (m *MockRepository) Save(ctx context.Context, item domain.SupplyItem) (domain.SupplyItem, error) {
	args := m.Called(ctx, item)
	if err := args.Error(1); err != nil {
		return domain.SupplyItem{}, err
	}
	item.Version = 1
	return item, nil
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (domain.SupplyItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.SupplyItem), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, filter domain.ListFilter) ([]domain.SupplyItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.SupplyItem), args.Error(1)
}

func (m *MockRepository) Mutate(ctx context.Context, id string, fn domain.MutateFunc) (domain.SupplyItem, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return domain.SupplyItem{}, err
	}
	current := args.Get(0).(domain.SupplyItem)
	next, write, err := fn(current)
	if err != nil {
		return domain.SupplyItem{}, err
	}
	if !write {
		return current, nil
	}
	next.Version = current.Version + 1
	m.written = append(m.written, next)
	return next, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, item domain.SupplyItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockScheduler) Cancel(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.SupplyEvent) error {
	return m.Called(ctx, event).Error(0)
}

type fakeWidget struct {
	refreshes     int
	refreshedFrom [][]domain.SupplyItem
	err           error
}

func (w *fakeWidget) Refresh(context.Context) error {
	w.refreshes++
	return w.err
}

func (w *fakeWidget) RefreshFrom(_ context.Context, items []domain.SupplyItem) error {
	w.refreshedFrom = append(w.refreshedFrom, items)
	return w.err
}

type fakeRecorder struct {
	usage    map[string]int
	learned  []float64
	restocks int
	ordered  []bool
}

func (r *fakeRecorder) UsageRecorded(outcome string) {
	if r.usage == nil {
		r.usage = map[string]int{}
	}
	r.usage[outcome]++
}
func (r *fakeRecorder) DurationLearned(days float64)    { r.learned = append(r.learned, days) }
func (r *fakeRecorder) Restocked()                      { r.restocks++ }
func (r *fakeRecorder) OrderStatusChanged(ordered bool) { r.ordered = append(r.ordered, ordered) }

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *MockRepository
	scheduler *MockScheduler
	publisher *MockPublisher
	widget    *fakeWidget
	recorder  *fakeRecorder
	svc       *supplyservice.Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:      new(MockRepository),
		scheduler: new(MockScheduler),
		publisher: new(MockPublisher),
		widget:    &fakeWidget{},
		recorder:  &fakeRecorder{},
	}
	f.svc = supplyservice.NewService(f.repo, depletion.NewEstimator(time.UTC), logger.NewLogger("error"),
		supplyservice.WithScheduler(f.scheduler),
		supplyservice.WithPublisher(f.publisher),
		supplyservice.WithWidget(f.widget),
		supplyservice.WithRecorder(f.recorder),
		supplyservice.WithClock(func() time.Time { return now }),
	)
	return f
}

func (f *fixture) expectCollaborators() {
	f.scheduler.On("Schedule", mock.Anything, mock.AnythingOfType("domain.SupplyItem")).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.AnythingOfType("domain.SupplyEvent")).Return(nil)
}

func stored(lastUsedDaysAgo int) domain.SupplyItem {
	return domain.SupplyItem{
		ID: uuid.NewString(), Name: "Café", CreatedDate: now.AddDate(0, -1, 0),
		Quantity: 3, DurationPerUnit: 10, LastUsedAt: now.AddDate(0, 0, -lastUsedDaysAgo),
		RestockSize: 5, DurationAdjustmentFactor: 0.7, MinimumUpdateFraction: 0.6, Version: 4,
	}
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// TestCreateItem_AppliesDefaults verifica os valores padrão e o repasse aos colaboradores.
func TestCreateItem_AppliesDefaults(t *testing.T) {
	f := newFixture()
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("domain.SupplyItem")).Return(nil, nil)
	f.expectCollaborators()

	view, err := f.svc.CreateItem(context.Background(), domain.ItemInput{Name: "  Café  ", Quantity: 2, DurationPerUnit: 15})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(view.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "Café", view.Name)
	assert.Equal(t, now, view.CreatedDate)
	assert.Equal(t, now, view.LastUsedAt)
	assert.Equal(t, domain.DefaultRestockSize, view.RestockSize)
	assert.Equal(t, domain.DefaultDurationAdjustmentFactor, view.DurationAdjustmentFactor)
	assert.Equal(t, domain.DefaultMinimumUpdateFraction, view.MinimumUpdateFraction)
	assert.False(t, view.IsOnOrder)
	assert.Equal(t, 30, view.DaysUntilEmpty)
	assert.Equal(t, domain.StatusNormal, view.Status)

	f.scheduler.AssertNumberOfCalls(t, "Schedule", 1)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e domain.SupplyEvent) bool {
		return e.Type == domain.EventItemCreated && e.ItemID == view.ID && e.Item != nil
	}))
	assert.Equal(t, 1, f.widget.refreshes)
}

func TestCreateItem_LastUsedDefaultsToCreatedDate(t *testing.T) {
	f := newFixture()
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("domain.SupplyItem")).Return(nil, nil)
	f.expectCollaborators()
	created := now.AddDate(0, 0, -3)

	view, err := f.svc.CreateItem(context.Background(), domain.ItemInput{
		Name: "Arroz", Quantity: 1, DurationPerUnit: 7, CreatedDate: timePtr(created),
	})

	require.NoError(t, err)
	assert.Equal(t, created, view.LastUsedAt)
	assert.Equal(t, 4, view.DaysUntilEmpty)
}

func TestCreateItem_ValidationErrors(t *testing.T) {
	valid := domain.ItemInput{Name: "Café", Quantity: 1, DurationPerUnit: 10}
	cases := map[string]func(in *domain.ItemInput){
		"nome vazio":          func(in *domain.ItemInput) { in.Name = "   " },
		"quantidade negativa": func(in *domain.ItemInput) { in.Quantity = -1 },
		"duração zero":        func(in *domain.ItemInput) { in.DurationPerUnit = 0 },
		"limite negativo":     func(in *domain.ItemInput) { in.NotifyThresholdDays = intPtr(-1) },
		"reposição zero":      func(in *domain.ItemInput) { in.RestockSize = intPtr(0) },
		"fator acima de 1":    func(in *domain.ItemInput) { in.DurationAdjustmentFactor = floatPtr(1.5) },
		"fração zero":         func(in *domain.ItemInput) { in.MinimumUpdateFraction = floatPtr(0) },
		"quantidade enorme":   func(in *domain.ItemInput) { in.Quantity = domain.MaxQuantity + 1 },
		"duração enorme":      func(in *domain.ItemInput) { in.DurationPerUnit = 1e300 },
		"reposição enorme":    func(in *domain.ItemInput) { in.RestockSize = intPtr(domain.MaxQuantity + 1) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			in := valid
			mutate(&in)

			_, err := f.svc.CreateItem(context.Background(), in)

			assert.IsType(t, &apperror.ValidationError{}, err)
			f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestGetItem_InvalidID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetItem(context.Background(), "não-é-uuid")

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGetItem_NotFoundPropagates(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()
	notFound := apperror.NewNotFoundError("item")
	f.repo.On("FindByID", mock.Anything, id).Return(domain.SupplyItem{}, notFound)

	_, err := f.svc.GetItem(context.Background(), id)

	assert.Equal(t, notFound, err)
}

// TestUseItem_CommitsAndLearns: 20 dias desde o último uso com duração 10 → 10*0.7 + 20*0.3 = 13.
func TestUseItem_CommitsAndLearns(t *testing.T) {
	f := newFixture()
	item := stored(20)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.expectCollaborators()

	result, err := f.svc.UseItem(context.Background(), item.ID, false)

	require.NoError(t, err)
	assert.False(t, result.RequiresConfirmation)
	assert.Equal(t, 2, result.Item.Quantity)
	assert.InDelta(t, 13.0, result.Item.DurationPerUnit, 1e-9)
	assert.Equal(t, now, result.Item.LastUsedAt)
	require.Len(t, f.repo.written, 1)

	f.scheduler.AssertCalled(t, "Schedule", mock.Anything, mock.MatchedBy(func(i domain.SupplyItem) bool {
		return i.ID == item.ID && i.Quantity == 2
	}))
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e domain.SupplyEvent) bool {
		return e.Type == domain.EventItemUsed
	}))
	assert.Equal(t, 1, f.widget.refreshes)
	assert.Equal(t, 1, f.recorder.usage[metrics.OutcomeCommitted])
	require.Len(t, f.recorder.learned, 1)
	assert.InDelta(t, 13.0, f.recorder.learned[0], 1e-9)
}

// TestUseItem_TooEarlyRequiresConfirmation: 1 dia < 10*0.6, nada é gravado nem repassado.
func TestUseItem_TooEarlyRequiresConfirmation(t *testing.T) {
	f := newFixture()
	item := stored(1)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)

	result, err := f.svc.UseItem(context.Background(), item.ID, false)

	require.NoError(t, err)
	assert.True(t, result.RequiresConfirmation)
	assert.Equal(t, 3, result.Item.Quantity)
	assert.Equal(t, item.LastUsedAt, result.Item.LastUsedAt)
	assert.Empty(t, f.repo.written)
	f.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	assert.Zero(t, f.widget.refreshes)
	assert.Equal(t, 1, f.recorder.usage[metrics.OutcomeConfirmationRequired])
}

func TestUseItem_ForceConfirmCommits(t *testing.T) {
	f := newFixture()
	item := stored(1)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.expectCollaborators()

	result, err := f.svc.UseItem(context.Background(), item.ID, true)

	require.NoError(t, err)
	assert.False(t, result.RequiresConfirmation)
	assert.Equal(t, 2, result.Item.Quantity)
	assert.InDelta(t, 7.3, result.Item.DurationPerUnit, 1e-9)
}

// TestUseItem_CollaboratorFailuresAreIgnored garante que alerta, evento e widget não derrubam o uso.
func TestUseItem_CollaboratorFailuresAreIgnored(t *testing.T) {
	f := newFixture()
	item := stored(20)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.scheduler.On("Schedule", mock.Anything, mock.Anything).Return(errors.New("agenda fora"))
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker fora"))
	f.widget.err = errors.New("redis fora")

	result, err := f.svc.UseItem(context.Background(), item.ID, false)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Item.Quantity)
}

func TestUseItem_PersistenceErrorPropagates(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()
	conflict := apperror.NewConflictError("versão")
	f.repo.On("Mutate", mock.Anything, id).Return(domain.SupplyItem{}, conflict)

	_, err := f.svc.UseItem(context.Background(), id, false)

	assert.Equal(t, conflict, err)
	f.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestStockUp_AddsRestockSizeAndClearsOrder(t *testing.T) {
	f := newFixture()
	item := stored(2)
	item.Quantity = 0
	item.IsOnOrder = true
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.expectCollaborators()

	view, err := f.svc.StockUp(context.Background(), item.ID)

	require.NoError(t, err)
	assert.Equal(t, 5, view.Quantity)
	assert.False(t, view.IsOnOrder)
	assert.Equal(t, item.LastUsedAt, view.LastUsedAt)
	assert.Equal(t, 1, f.recorder.restocks)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e domain.SupplyEvent) bool {
		return e.Type == domain.EventItemRestocked
	}))
}

func TestSetOrderStatus_OnlyTogglesFlag(t *testing.T) {
	f := newFixture()
	item := stored(2)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.expectCollaborators()

	view, err := f.svc.SetOrderStatus(context.Background(), item.ID, true)

	require.NoError(t, err)
	assert.True(t, view.IsOnOrder)
	assert.Equal(t, item.Quantity, view.Quantity)
	assert.Equal(t, item.DurationPerUnit, view.DurationPerUnit)
	assert.Equal(t, []bool{true}, f.recorder.ordered)
	f.scheduler.AssertCalled(t, "Schedule", mock.Anything, mock.MatchedBy(func(i domain.SupplyItem) bool {
		return i.IsOnOrder
	}))
}

func TestUpdateItem_KeepsOrderStatus(t *testing.T) {
	f := newFixture()
	item := stored(2)
	item.IsOnOrder = true
	item.NotifyThresholdDays = intPtr(9)
	f.repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)
	f.expectCollaborators()

	view, err := f.svc.UpdateItem(context.Background(), item.ID, domain.ItemInput{
		Name: "Café moído", Quantity: 7, DurationPerUnit: 12,
	})

	require.NoError(t, err)
	assert.Equal(t, "Café moído", view.Name)
	assert.Equal(t, 7, view.Quantity)
	assert.Equal(t, 12.0, view.DurationPerUnit)
	assert.True(t, view.IsOnOrder)
	assert.Nil(t, view.NotifyThresholdDays)
	assert.Equal(t, item.CreatedDate, view.CreatedDate)
	assert.Equal(t, item.RestockSize, view.RestockSize)
	assert.Equal(t, item.Version+1, view.Version)
}

func TestDeleteItem_CancelsNotification(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()
	f.repo.On("Delete", mock.Anything, id).Return(nil)
	f.scheduler.On("Cancel", mock.Anything, id).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.SupplyEvent) bool {
		return e.Type == domain.EventItemDeleted && e.ItemID == id && e.Item == nil
	})).Return(nil)

	require.NoError(t, f.svc.DeleteItem(context.Background(), id))

	f.scheduler.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	assert.Equal(t, 1, f.widget.refreshes)
}

func TestDeleteItem_NotFoundSkipsCollaborators(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()
	f.repo.On("Delete", mock.Anything, id).Return(apperror.NewNotFoundError("item"))

	err := f.svc.DeleteItem(context.Background(), id)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	f.scheduler.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestListItems_FiltersUnderThresholdAndSortsByEmptyDate(t *testing.T) {
	f := newFixture()
	long := stored(0)
	long.Name = "Arroz"
	long.Quantity = 5 // 50 dias
	short := stored(0)
	short.Name = "Sabão"
	short.Quantity = 1 // 10 dias
	short.NotifyThresholdDays = intPtr(2)
	filter := domain.ListFilter{Sort: domain.SortByEmptyDate}
	f.repo.On("FindAll", mock.Anything, filter).Return([]domain.SupplyItem{long, short}, nil)

	views, err := f.svc.ListItems(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Sabão", views[0].Name)
	assert.Equal(t, domain.StatusWarning, views[0].Status)
	require.Len(t, f.widget.refreshedFrom, 1, "listagem completa alimenta o widget")

	underFilter := domain.ListFilter{OnlyUnderThreshold: true}
	f.repo.On("FindAll", mock.Anything, underFilter).Return([]domain.SupplyItem{long, short}, nil)

	views, err = f.svc.ListItems(context.Background(), underFilter)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Sabão", views[0].Name)
	assert.True(t, views[0].IsUnderThreshold)
}

func TestListItems_NameFilterDoesNotFeedWidget(t *testing.T) {
	f := newFixture()
	filter := domain.ListFilter{NameContains: "caf"}
	f.repo.On("FindAll", mock.Anything, filter).Return([]domain.SupplyItem{stored(0)}, nil)

	_, err := f.svc.ListItems(context.Background(), filter)

	require.NoError(t, err)
	assert.Empty(t, f.widget.refreshedFrom)
}

func TestListItems_RejectsUnknownSort(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListItems(context.Background(), domain.ListFilter{Sort: "preço"})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestService_WorksWithoutCollaborators(t *testing.T) {
	repo := new(MockRepository)
	svc := supplyservice.NewService(repo, depletion.NewEstimator(time.UTC), logger.NewLogger("error"),
		supplyservice.WithClock(func() time.Time { return now }))
	item := stored(20)
	repo.On("Mutate", mock.Anything, item.ID).Return(item, nil)

	result, err := svc.UseItem(context.Background(), item.ID, false)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Item.Quantity)
}
