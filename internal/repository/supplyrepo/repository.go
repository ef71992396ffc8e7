package supplyrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
)

// Chave de cache de um item.
const itemCacheKey = "supply_item:%s"

const itemColumns = `id, name, created_date, quantity, duration_per_unit, notify_threshold_days,
        is_on_order, last_used_at, restock_size, duration_adjustment_factor, minimum_update_fraction,
        version, updated_at`

// SupplyRepository persiste itens no PostgreSQL, com cache-aside em FindByID.
type SupplyRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewSupplyRepository cria o repositório. cacheClient pode ser nil (sem cache).
func NewSupplyRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *SupplyRepository {
	return &SupplyRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (domain.SupplyItem, error) {
	var (
		item      domain.SupplyItem
		threshold sql.NullInt32
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.CreatedDate, &item.Quantity, &item.DurationPerUnit, &threshold,
		&item.IsOnOrder, &item.LastUsedAt, &item.RestockSize, &item.DurationAdjustmentFactor,
		&item.MinimumUpdateFraction, &item.Version, &item.UpdatedAt,
	)
	if err != nil {
		return domain.SupplyItem{}, err
	}
	if threshold.Valid {
		v := int(threshold.Int32)
		item.NotifyThresholdDays = &v
	}
	return item, nil
}

func nullableThreshold(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

// Save insere um novo item (versão 1).
func (r *SupplyRepository) Save(ctx context.Context, item domain.SupplyItem) (domain.SupplyItem, error) {
	r.logger.Debug("Inserindo item no repositório.", map[string]interface{}{"item_id": item.ID, "name": item.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	item.Version = 1
	item.UpdatedAt = time.Now()

	query := `
        INSERT INTO supply_items (` + itemColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		item.ID, item.Name, item.CreatedDate, item.Quantity, item.DurationPerUnit, nullableThreshold(item.NotifyThresholdDays),
		item.IsOnOrder, item.LastUsedAt, item.RestockSize, item.DurationAdjustmentFactor, item.MinimumUpdateFraction,
		item.Version, item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir item no DB.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao inserir item", err)
	}

	r.logger.Info("Item inserido com sucesso.", map[string]interface{}{"item_id": item.ID})
	return item, nil
}

// FindByID busca um item usando Cache-Aside.
func (r *SupplyRepository) FindByID(ctx context.Context, id string) (domain.SupplyItem, error) {
	key := fmt.Sprintf(itemCacheKey, id)

	// 1. Cache (leitura)
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, key)
		if err == nil {
			var item domain.SupplyItem
			if json.Unmarshal([]byte(cached), &item) == nil {
				r.logger.Debug("Item servido do cache.", map[string]interface{}{"item_id": id})
				return item, nil
			}
		} else if err != cache.ErrCacheMiss {
			r.logger.Warn("Falha ao ler item do cache.", map[string]interface{}{"item_id": id, "error": err.Error()})
		}
	}

	// 2. Banco
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + itemColumns + ` FROM supply_items WHERE id = $1`
	item, err := scanItem(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SupplyItem{}, apperror.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item no DB.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao buscar item", err)
	}

	// 3. Cache (escrita)
	r.storeInCache(ctx, item)
	return item, nil
}

// FindAll lista itens com nome não vazio. A ordenação por data de esgotamento é feita no serviço.
func (r *SupplyRepository) FindAll(ctx context.Context, filter domain.ListFilter) ([]domain.SupplyItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query, args := buildListQuery(filter)
	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar itens no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar itens", err)
	}
	defer rows.Close()

	items := make([]domain.SupplyItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar itens", err)
	}

	r.logger.Debug("Itens listados.", map[string]interface{}{"count": len(items)})
	return items, nil
}

// buildListQuery monta o SELECT da listagem com os filtros aplicáveis em SQL.
func buildListQuery(filter domain.ListFilter) (string, []interface{}) {
	var (
		conds = []string{"name <> ''"}
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.NameContains); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.OnlyOnOrder {
		conds = append(conds, "is_on_order = TRUE")
	}

	order := "created_date DESC"
	if filter.Sort == domain.SortByName {
		order = "name ASC"
	}

	query := `SELECT ` + itemColumns + ` FROM supply_items WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY ` + order
	return query, args
}

// Mutate lê o item com FOR UPDATE, aplica fn e grava com checagem de versão (OCC),
// tudo na mesma transação. Mutações concorrentes do mesmo id ficam serializadas pelo lock de linha.
func (r *SupplyRepository) Mutate(ctx context.Context, id string, fn domain.MutateFunc) (domain.SupplyItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de item.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	// 1. Lock da linha
	current, err := scanItem(tx.QueryRowContext(ctxTimeout,
		`SELECT `+itemColumns+` FROM supply_items WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SupplyItem{}, apperror.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar item para atualização.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao buscar item para atualização", err)
	}

	// 2. Novo estado
	next, write, err := fn(current)
	if err != nil {
		return domain.SupplyItem{}, err
	}
	if !write {
		return current, nil
	}

	// 3. Gravação com OCC
	next.ID = current.ID
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctxTimeout, `
        UPDATE supply_items
        SET name = $1, created_date = $2, quantity = $3, duration_per_unit = $4, notify_threshold_days = $5,
            is_on_order = $6, last_used_at = $7, restock_size = $8, duration_adjustment_factor = $9,
            minimum_update_fraction = $10, version = $11, updated_at = $12
        WHERE id = $13 AND version = $14`,
		next.Name, next.CreatedDate, next.Quantity, next.DurationPerUnit, nullableThreshold(next.NotifyThresholdDays),
		next.IsOnOrder, next.LastUsedAt, next.RestockSize, next.DurationAdjustmentFactor,
		next.MinimumUpdateFraction, next.Version, next.UpdatedAt,
		current.ID, current.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar item.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao atualizar item", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Versão do item desatualizada (OCC).", map[string]interface{}{"item_id": id, "expected_version": current.Version})
		return domain.SupplyItem{}, apperror.NewConflictError("O item foi modificado por outra operação. Tente novamente.")
	}

	// 4. Commit
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de item.", err)
		return domain.SupplyItem{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctx, id)
	r.logger.Debug("Item atualizado.", map[string]interface{}{"item_id": id, "version": next.Version, "quantity": next.Quantity})
	return next, nil
}

// Delete remove o item definitivamente.
func (r *SupplyRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM supply_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar item.", err)
		return apperror.NewDBError("Falha ao deletar item", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Item %s não encontrado.", id))
	}

	r.invalidate(ctx, id)
	r.logger.Info("Item deletado.", map[string]interface{}{"item_id": id})
	return nil
}

func (r *SupplyRepository) storeInCache(ctx context.Context, item domain.SupplyItem) {
	if r.Cache == nil {
		return
	}
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, fmt.Sprintf(itemCacheKey, item.ID), data, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar item no cache.", map[string]interface{}{"item_id": item.ID, "error": err.Error()})
	}
}

func (r *SupplyRepository) invalidate(ctx context.Context, id string) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Delete(ctx, fmt.Sprintf(itemCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do item.", map[string]interface{}{"item_id": id, "error": err.Error()})
	}
}
