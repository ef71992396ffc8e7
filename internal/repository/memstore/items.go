package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
)

// ItemStore implementa o repositório de itens sobre o Store.
type ItemStore struct {
	s *Store
}

// cloneItem evita que o chamador compartilhe o ponteiro do limiar com o estado interno.
func cloneItem(item domain.SupplyItem) domain.SupplyItem {
	if item.NotifyThresholdDays != nil {
		v := *item.NotifyThresholdDays
		item.NotifyThresholdDays = &v
	}
	return item
}

func notFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
}

func (r *ItemStore) Save(ctx context.Context, item domain.SupplyItem) (domain.SupplyItem, error) {
	var (
		saved domain.SupplyItem
		opErr error
	)
	err := r.s.exec(ctx, func(st *state) {
		if _, exists := st.items[item.ID]; exists {
			opErr = apperror.NewConflictError(fmt.Sprintf("Item %s já existe.", item.ID))
			return
		}
		item.Version = 1
		item.UpdatedAt = r.s.now()
		st.items[item.ID] = cloneItem(item)
		saved = cloneItem(item)
	})
	if err != nil {
		return domain.SupplyItem{}, err
	}
	return saved, opErr
}

func (r *ItemStore) FindByID(ctx context.Context, id string) (domain.SupplyItem, error) {
	var (
		found domain.SupplyItem
		ok    bool
	)
	err := r.s.exec(ctx, func(st *state) {
		found, ok = st.items[id]
		found = cloneItem(found)
	})
	if err != nil {
		return domain.SupplyItem{}, err
	}
	if !ok {
		return domain.SupplyItem{}, notFound(id)
	}
	return found, nil
}

func (r *ItemStore) FindAll(ctx context.Context, filter domain.ListFilter) ([]domain.SupplyItem, error) {
	needle := strings.ToLower(strings.TrimSpace(filter.NameContains))
	items := make([]domain.SupplyItem, 0)

	err := r.s.exec(ctx, func(st *state) {
		for _, item := range st.items {
			if item.Name == "" {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
			if filter.OnlyOnOrder && !item.IsOnOrder {
				continue
			}
			items = append(items, cloneItem(item))
		}
	})
	if err != nil {
		return nil, err
	}

	if filter.Sort == domain.SortByName {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	} else {
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedDate.After(items[j].CreatedDate) })
	}
	return items, nil
}

// Mutate executa fn dentro da goroutine dona; nenhuma outra operação roda entre a leitura e a gravação.
func (r *ItemStore) Mutate(ctx context.Context, id string, fn domain.MutateFunc) (domain.SupplyItem, error) {
	var (
		result domain.SupplyItem
		opErr  error
	)
	err := r.s.exec(ctx, func(st *state) {
		current, ok := st.items[id]
		if !ok {
			opErr = notFound(id)
			return
		}
		next, write, fnErr := fn(cloneItem(current))
		if fnErr != nil {
			opErr = fnErr
			return
		}
		if !write {
			result = cloneItem(current)
			return
		}
		next.ID = current.ID
		next.Version = current.Version + 1
		next.UpdatedAt = r.s.now()
		st.items[id] = cloneItem(next)
		result = cloneItem(next)
	})
	if err != nil {
		return domain.SupplyItem{}, err
	}
	return result, opErr
}

func (r *ItemStore) Delete(ctx context.Context, id string) error {
	var opErr error
	err := r.s.exec(ctx, func(st *state) {
		if _, ok := st.items[id]; !ok {
			opErr = notFound(id)
			return
		}
		delete(st.items, id)
		for nid, n := range st.notifications {
			if n.ItemID == id {
				delete(st.notifications, nid)
			}
		}
	})
	if err != nil {
		return err
	}
	return opErr
}
