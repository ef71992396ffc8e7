package notificationrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// NotificationRepository guarda os alertas agendados no PostgreSQL.
type NotificationRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewNotificationRepository cria o repositório de alertas.
func NewNotificationRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *NotificationRepository {
	return &NotificationRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Replace troca o alerta pendente do item numa transação.
// A linha de notification_watermarks guarda a última versão aplicada: o upsert
// condicional trava essa linha e não devolve nada quando itemVersion é mais antiga.
func (r *NotificationRepository) Replace(ctx context.Context, itemID string, itemVersion int, n *domain.ScheduledNotification) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return false, apperror.NewDBError("Falha ao iniciar transação de alerta", err)
	}
	defer func() { _ = tx.Rollback() }()

	var applied int
	err = tx.QueryRowContext(ctxTimeout, `
        INSERT INTO notification_watermarks (item_id, item_version)
        VALUES ($1, $2)
        ON CONFLICT (item_id) DO UPDATE
        SET item_version = EXCLUDED.item_version
        WHERE notification_watermarks.item_version <= EXCLUDED.item_version
        RETURNING item_version`, itemID, itemVersion).Scan(&applied)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("Versão antiga do item ignorada.", map[string]interface{}{"item_id": itemID, "version": itemVersion})
		return false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao gravar marca de versão do alerta.", err)
		return false, apperror.NewDBError("Falha ao gravar alerta", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM scheduled_notifications WHERE item_id = $1`, itemID); err != nil {
		r.logger.Error("Falha ao remover alerta anterior.", err)
		return false, apperror.NewDBError("Falha ao gravar alerta", err)
	}

	if n != nil {
		_, err = tx.ExecContext(ctxTimeout, `
            INSERT INTO scheduled_notifications (id, item_id, title, body, fire_at, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.ItemID, n.Title, n.Body, n.FireAt, n.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao gravar alerta agendado.", err)
			return false, apperror.NewDBError("Falha ao gravar alerta", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, apperror.NewDBError("Falha ao confirmar alerta", err)
	}
	return true, nil
}

// DeleteByItem remove os alertas pendentes de um item (sem erro se não houver).
func (r *NotificationRepository) DeleteByItem(ctx context.Context, itemID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM scheduled_notifications WHERE item_id = $1`, itemID); err != nil {
		r.logger.Error("Falha ao remover alertas do item.", err)
		return apperror.NewDBError("Falha ao remover alertas", err)
	}
	return nil
}

// ListPending devolve os alertas ainda não disparados, do mais próximo ao mais distante.
func (r *NotificationRepository) ListPending(ctx context.Context) ([]domain.ScheduledNotification, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, item_id, title, body, fire_at, created_at
        FROM scheduled_notifications ORDER BY fire_at ASC`)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar alertas", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// ClaimDue remove e devolve, atomicamente, até limit alertas com fire_at <= now.
// SKIP LOCKED permite mais de uma instância do dispatcher sem entrega duplicada.
func (r *NotificationRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        DELETE FROM scheduled_notifications
        WHERE id IN (
            SELECT id FROM scheduled_notifications
            WHERE fire_at <= $1
            ORDER BY fire_at
            LIMIT $2
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, item_id, title, body, fire_at, created_at`, now, limit)
	if err != nil {
		r.logger.Error("Falha ao reivindicar alertas vencidos.", err)
		return nil, apperror.NewDBError("Falha ao reivindicar alertas", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func scanNotifications(rows *sql.Rows) ([]domain.ScheduledNotification, error) {
	out := make([]domain.ScheduledNotification, 0)
	for rows.Next() {
		var n domain.ScheduledNotification
		if err := rows.Scan(&n.ID, &n.ItemID, &n.Title, &n.Body, &n.FireAt, &n.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler alerta", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar alertas", err)
	}
	return out, nil
}
