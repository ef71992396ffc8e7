package notifyservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/depletion"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/repository/memstore"
	"gosupply/internal/service/notifyservice"
)

var jan1 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func coffee(qty int, threshold *int) domain.SupplyItem {
	return domain.SupplyItem{
		ID: "cafe", Name: "Café", Quantity: qty, DurationPerUnit: 10,
		LastUsedAt: jan1, NotifyThresholdDays: threshold,
	}
}

type countingRecorder struct {
	mu                    sync.Mutex
	scheduled, dispatched int
}

func (r *countingRecorder) NotificationScheduled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled++
}

func (r *countingRecorder) NotificationDispatched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched++
}

func newScheduler(t *testing.T) (*notifyservice.Scheduler, *memstore.NotificationStore, *countingRecorder) {
	t.Helper()
	st := memstore.New()
	t.Cleanup(func() { _ = st.Close() })
	rec := &countingRecorder{}
	s := notifyservice.NewScheduler(st.Notifications(), depletion.NewEstimator(time.UTC), 14, rec, logger.NewLogger("error")).
		WithClock(func() time.Time { return jan1 })
	return s, st.Notifications(), rec
}

func TestPlan_DefaultWindow(t *testing.T) {
	s, _, _ := newScheduler(t)

	n, ok := s.Plan(coffee(3, nil), jan1)

	require.True(t, ok)
	assert.Equal(t, "cafe-initial", n.ID)
	assert.Equal(t, notifyservice.LowStockTitle, n.Title)
	assert.Equal(t, "Café acabará em 14 dias", n.Body)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), n.FireAt)
}

func TestPlan_ItemWindowOverridesDefault(t *testing.T) {
	s, _, _ := newScheduler(t)
	window := 5

	n, ok := s.Plan(coffee(3, &window), jan1)

	require.True(t, ok)
	assert.Equal(t, "Café acabará em 5 dias", n.Body)
	assert.Equal(t, time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC), n.FireAt)
}

func TestPlan_NothingInsideWindow(t *testing.T) {
	s, _, _ := newScheduler(t)
	window := 30

	_, ok := s.Plan(coffee(3, &window), jan1)
	assert.False(t, ok, "30 dias restantes não excede a janela de 30")

	_, ok = s.Plan(coffee(1, nil), jan1)
	assert.False(t, ok, "10 dias restantes está dentro da janela padrão")
}

func TestSchedule_ReplacesAndCancelsForOrderedItems(t *testing.T) {
	s, store, rec := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, coffee(3, nil)))
	require.NoError(t, s.Schedule(ctx, coffee(4, nil)))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, time.Date(2024, 1, 27, 0, 0, 0, 0, time.UTC), pending[0].FireAt)
	assert.Equal(t, 2, rec.scheduled)

	ordered := coffee(4, nil)
	ordered.IsOnOrder = true
	require.NoError(t, s.Schedule(ctx, ordered))

	pending, err = s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancel_RemovesPending(t *testing.T) {
	s, store, _ := newScheduler(t)
	ctx := context.Background()
	require.NoError(t, s.Schedule(ctx, coffee(3, nil)))

	require.NoError(t, s.Cancel(ctx, "cafe"))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestSchedule_IgnoresOlderSnapshot: o snapshot mais antigo chega por último e não
// sobrescreve o alerta calculado a partir da versão mais nova.
func TestSchedule_IgnoresOlderSnapshot(t *testing.T) {
	s, store, rec := newScheduler(t)
	ctx := context.Background()
	older := coffee(3, nil)
	older.Version = 2
	newer := coffee(2, nil)
	newer.Version = 3

	require.NoError(t, s.Schedule(ctx, newer))
	require.NoError(t, s.Schedule(ctx, older))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	// 2 x 10 dias a partir de 1/jan, 14 dias antes.
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), pending[0].FireAt)
	assert.Equal(t, 1, rec.scheduled)
}

func TestSchedule_AfterCancelIsIgnored(t *testing.T) {
	s, store, _ := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Cancel(ctx, "cafe"))
	require.NoError(t, s.Schedule(ctx, coffee(3, nil)))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func place(t *testing.T, ns *memstore.NotificationStore, n domain.ScheduledNotification) {
	t.Helper()
	applied, err := ns.Replace(context.Background(), n.ItemID, 1, &n)
	require.NoError(t, err)
	require.True(t, applied)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.SupplyEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domain.SupplyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func TestDispatchDue_PublishesLowStockOnce(t *testing.T) {
	st := memstore.New()
	defer st.Close()
	ctx := context.Background()
	due := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	place(t, st.Notifications(), domain.ScheduledNotification{
		ID: "cafe-initial", ItemID: "cafe", Title: notifyservice.LowStockTitle, FireAt: due,
	})
	place(t, st.Notifications(), domain.ScheduledNotification{
		ID: "arroz-initial", ItemID: "arroz", FireAt: due.AddDate(0, 0, 3),
	})

	pub := &fakePublisher{}
	rec := &countingRecorder{}
	d := notifyservice.NewDispatcher(st.Notifications(), pub, time.Minute, rec, logger.NewLogger("error")).
		WithClock(func() time.Time { return due.Add(time.Hour) })

	sent, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventLowStock, pub.events[0].Type)
	assert.Equal(t, "cafe", pub.events[0].ItemID)
	require.NotNil(t, pub.events[0].Notification)
	assert.Equal(t, "cafe-initial", pub.events[0].Notification.ID)
	assert.Equal(t, 1, rec.dispatched)

	sent, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "alerta já reivindicado não é reenviado")

	pending, err := st.Notifications().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "arroz-initial", pending[0].ID)
}

func TestDispatchDue_FailedPublishIsNotCounted(t *testing.T) {
	st := memstore.New()
	defer st.Close()
	ctx := context.Background()
	place(t, st.Notifications(), domain.ScheduledNotification{
		ID: "cafe-initial", ItemID: "cafe", FireAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	pub := &fakePublisher{err: errors.New("broker fora")}
	rec := &countingRecorder{}
	d := notifyservice.NewDispatcher(st.Notifications(), pub, time.Minute, rec, logger.NewLogger("error"))

	sent, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, rec.dispatched)

	pending, err := st.Notifications().ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
