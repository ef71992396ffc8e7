package memstore

import (
	"context"
	"math"
	"sort"
	"time"

	"gosupply/internal/domain"
)

// NotificationStore guarda os alertas agendados no Store.
type NotificationStore struct {
	s *Store
}

// Replace aplica o alerta da versão itemVersion se ela não for mais antiga que a última aplicada.
func (r *NotificationStore) Replace(ctx context.Context, itemID string, itemVersion int, n *domain.ScheduledNotification) (bool, error) {
	applied := false
	err := r.s.exec(ctx, func(st *state) {
		if last, seen := st.notifyVer[itemID]; seen && itemVersion < last {
			return
		}
		st.notifyVer[itemID] = itemVersion
		deleteNotifications(st, itemID)
		if n != nil {
			st.notifications[n.ID] = *n
		}
		applied = true
	})
	return applied, err
}

// DeleteByItem remove os alertas e bloqueia agendamentos atrasados do item removido.
func (r *NotificationStore) DeleteByItem(ctx context.Context, itemID string) error {
	return r.s.exec(ctx, func(st *state) {
		deleteNotifications(st, itemID)
		st.notifyVer[itemID] = math.MaxInt
	})
}

func deleteNotifications(st *state, itemID string) {
	for id, n := range st.notifications {
		if n.ItemID == itemID {
			delete(st.notifications, id)
		}
	}
}

func (r *NotificationStore) ListPending(ctx context.Context) ([]domain.ScheduledNotification, error) {
	out := make([]domain.ScheduledNotification, 0)
	err := r.s.exec(ctx, func(st *state) {
		for _, n := range st.notifications {
			out = append(out, n)
		}
	})
	if err != nil {
		return nil, err
	}
	sortByFireAt(out)
	return out, nil
}

// ClaimDue remove e devolve até limit alertas vencidos, do mais antigo ao mais novo.
func (r *NotificationStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error) {
	out := make([]domain.ScheduledNotification, 0)
	err := r.s.exec(ctx, func(st *state) {
		due := make([]domain.ScheduledNotification, 0)
		for _, n := range st.notifications {
			if !n.FireAt.After(now) {
				due = append(due, n)
			}
		}
		sortByFireAt(due)
		if len(due) > limit {
			due = due[:limit]
		}
		for _, n := range due {
			delete(st.notifications, n.ID)
		}
		out = due
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sortByFireAt(ns []domain.ScheduledNotification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].FireAt.Equal(ns[j].FireAt) {
			return ns[i].ID < ns[j].ID
		}
		return ns[i].FireAt.Before(ns[j].FireAt)
	})
}
