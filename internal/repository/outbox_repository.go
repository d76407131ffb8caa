package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AureRaso/padel-club-api/internal/models"
)

const notificationColumns = `id, kind, waitlist_id, class_id, class_date, recipient_email, recipient_name, recipient_phone, payload, status, attempts, created_at, dispatched_at`

// OutboxRepository drains and settles notification events. Events are
// inserted by the waitlist workflows inside their transactions; this
// repository only serves the dispatcher.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs the repository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// FindByID returns an event by its ID.
func (r *OutboxRepository) FindByID(ctx context.Context, id string) (*models.NotificationEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE id = $1`, notificationColumns)
	var event models.NotificationEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListPending returns undelivered events oldest first, capped at limit.
func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]models.NotificationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE status = $1 ORDER BY created_at ASC LIMIT %d`, notificationColumns, limit)
	var events []models.NotificationEvent
	if err := r.db.SelectContext(ctx, &events, query, models.NotificationStatusPending); err != nil {
		return nil, fmt.Errorf("list pending notification events: %w", err)
	}
	return events, nil
}

// MarkSent settles a delivered event.
func (r *OutboxRepository) MarkSent(ctx context.Context, id string) error {
	const query = `UPDATE notification_events SET status = $2, attempts = attempts + 1, dispatched_at = $3 WHERE id = $1`
	return r.settle(ctx, query, id, models.NotificationStatusSent)
}

// MarkFailed records a delivery failure. Failed events stay visible for
// diagnostics; they are not retried automatically beyond the queue's own
// retry budget.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string) error {
	const query = `UPDATE notification_events SET status = $2, attempts = attempts + 1, dispatched_at = $3 WHERE id = $1`
	return r.settle(ctx, query, id, models.NotificationStatusFailed)
}

func (r *OutboxRepository) settle(ctx context.Context, query, id string, status models.NotificationStatus) error {
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("settle notification event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle notification event rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
