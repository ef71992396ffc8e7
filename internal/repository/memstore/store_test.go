package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
)

func seedItem(t *testing.T, items *ItemStore, id, name string, created time.Time) domain.SupplyItem {
	t.Helper()
	saved, err := items.Save(context.Background(), domain.SupplyItem{
		ID: id, Name: name, CreatedDate: created, Quantity: 1, DurationPerUnit: 10,
		LastUsedAt: created, RestockSize: 1, DurationAdjustmentFactor: 0.7, MinimumUpdateFraction: 0.6,
	})
	require.NoError(t, err)
	return saved
}

func TestItemStore_SaveFindDelete(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	ctx := context.Background()

	saved := seedItem(t, items, "a", "Café", time.Now())
	assert.Equal(t, 1, saved.Version)

	got, err := items.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Café", got.Name)

	_, err = items.Save(ctx, saved)
	assert.IsType(t, &apperror.ConflictError{}, err)

	require.NoError(t, items.Delete(ctx, "a"))
	_, err = items.FindByID(ctx, "a")
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.IsType(t, &apperror.NotFoundError{}, items.Delete(ctx, "a"))
}

// TestItemStore_MutateSerializesWriters dispara reposições concorrentes no mesmo item sem perder nenhuma.
func TestItemStore_MutateSerializesWriters(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	seedItem(t, items, "a", "Papel", time.Now())

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := items.Mutate(context.Background(), "a", func(cur domain.SupplyItem) (domain.SupplyItem, bool, error) {
				cur.Quantity++
				return cur, true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := items.FindByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1+writers, got.Quantity)
	assert.Equal(t, 1+writers, got.Version)
}

func TestItemStore_MutateWithoutWriteKeepsVersion(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	seedItem(t, items, "a", "Papel", time.Now())

	got, err := items.Mutate(context.Background(), "a", func(cur domain.SupplyItem) (domain.SupplyItem, bool, error) {
		cur.Quantity = 99
		return cur, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 1, got.Version)
}

func TestItemStore_MutatePropagatesErrors(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	seedItem(t, items, "a", "Papel", time.Now())
	boom := errors.New("regra violada")

	_, err := items.Mutate(context.Background(), "a", func(cur domain.SupplyItem) (domain.SupplyItem, bool, error) {
		return cur, true, boom
	})
	assert.ErrorIs(t, err, boom)

	called := false
	_, err = items.Mutate(context.Background(), "missing", func(cur domain.SupplyItem) (domain.SupplyItem, bool, error) {
		called = true
		return cur, false, nil
	})
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.False(t, called, "fn não deve rodar para item inexistente")
}

// TestItemStore_ReturnedItemsAreCopies garante que alterar o retorno não altera o estado.
func TestItemStore_ReturnedItemsAreCopies(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	threshold := 5
	_, err := items.Save(context.Background(), domain.SupplyItem{ID: "a", Name: "Sabão", NotifyThresholdDays: &threshold})
	require.NoError(t, err)

	got, err := items.FindByID(context.Background(), "a")
	require.NoError(t, err)
	*got.NotifyThresholdDays = 99

	again, err := items.FindByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 5, *again.NotifyThresholdDays)
}

func TestItemStore_FindAllFiltersAndSorts(t *testing.T) {
	s := New()
	defer s.Close()
	items := s.Items()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedItem(t, items, "1", "Café", base)
	seedItem(t, items, "2", "Arroz", base.Add(time.Hour))
	seedItem(t, items, "3", "", base.Add(2*time.Hour))
	seedItem(t, items, "4", "Café descafeinado", base.Add(3*time.Hour))

	all, err := items.FindAll(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3, "itens sem nome não são listados")
	assert.Equal(t, []string{"4", "2", "1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	byName, err := items.FindAll(context.Background(), domain.ListFilter{Sort: domain.SortByName})
	require.NoError(t, err)
	assert.Equal(t, "Arroz", byName[0].Name)

	cafe, err := items.FindAll(context.Background(), domain.ListFilter{NameContains: "CAFÉ"})
	require.NoError(t, err)
	assert.Len(t, cafe, 2)
}

func TestNotificationStore_ClaimDue(t *testing.T) {
	s := New()
	defer s.Close()
	ns := s.Notifications()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	schedule(t, ns, domain.ScheduledNotification{ID: "a-initial", ItemID: "a", FireAt: now.Add(-time.Hour)})
	schedule(t, ns, domain.ScheduledNotification{ID: "b-initial", ItemID: "b", FireAt: now})
	schedule(t, ns, domain.ScheduledNotification{ID: "c-initial", ItemID: "c", FireAt: now.Add(time.Hour)})

	due, err := ns.ClaimDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a-initial", due[0].ID)

	due, err = ns.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "b-initial", due[0].ID)

	pending, err := ns.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c-initial", pending[0].ID)

	require.NoError(t, ns.DeleteByItem(ctx, "c"))
	pending, err = ns.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func schedule(t *testing.T, ns *NotificationStore, n domain.ScheduledNotification) {
	t.Helper()
	applied, err := ns.Replace(context.Background(), n.ItemID, 1, &n)
	require.NoError(t, err)
	require.True(t, applied)
}

// TestNotificationStore_ReplaceIgnoresOlderVersions cobre snapshots que chegam fora de ordem.
func TestNotificationStore_ReplaceIgnoresOlderVersions(t *testing.T) {
	s := New()
	defer s.Close()
	ns := s.Notifications()
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	v3 := domain.ScheduledNotification{ID: "a-initial", ItemID: "a", FireAt: day.AddDate(0, 0, 3)}
	v2 := domain.ScheduledNotification{ID: "a-initial", ItemID: "a", FireAt: day.AddDate(0, 0, 2)}

	applied, err := ns.Replace(ctx, "a", 3, &v3)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = ns.Replace(ctx, "a", 2, &v2)
	require.NoError(t, err)
	assert.False(t, applied)
	applied, err = ns.Replace(ctx, "a", 2, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	pending, err := ns.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, v3.FireAt, pending[0].FireAt)

	applied, err = ns.Replace(ctx, "a", 4, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	pending, err = ns.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNotificationStore_DeleteByItemBlocksLateReplace(t *testing.T) {
	s := New()
	defer s.Close()
	ns := s.Notifications()
	ctx := context.Background()
	n := domain.ScheduledNotification{ID: "a-initial", ItemID: "a", FireAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, ns.DeleteByItem(ctx, "a"))
	applied, err := ns.Replace(ctx, "a", 7, &n)
	require.NoError(t, err)
	assert.False(t, applied)

	pending, err := ns.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUserStore_SaveAndFind(t *testing.T) {
	s := New()
	defer s.Close()
	users := s.Users()
	ctx := context.Background()

	saved, err := users.Save(ctx, domain.User{Email: "ana@example.com", PasswordHash: "h", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	_, err = users.Save(ctx, domain.User{Email: "ana@example.com"})
	assert.IsType(t, &apperror.ConflictError{}, err)

	found, err := users.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = users.FindByEmail(ctx, "bob@example.com")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestStore_ClosedRejectsCommands(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Items().FindByID(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
}
