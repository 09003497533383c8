package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type orderPostgresRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) OrderRepository {
	return &orderPostgresRepository{db: db}
}

const orderColumns = `id, user_id, total_amount, delivery_address, payment_method, notes,
	          status, items, order_date, estimated_delivery, cancelled_at, cancellation_reason`

// CreateOrder persists the order and its order_placed outbox event in one
// transaction, so "order persisted" always implies "event enqueued".
func (r *orderPostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, user_id, total_amount, delivery_address, payment_method, notes,
	                              status, items, order_date, estimated_delivery)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.TotalAmount,
		order.DeliveryAddress,
		string(order.PaymentMethod),
		order.Notes,
		string(order.Status),
		itemsJSON,
		order.OrderDate,
		order.EstimatedDelivery)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}

	if err := insertOutboxEvent(ctx, tx, order, EventOrderPlaced); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}
	return nil
}

func (r *orderPostgresRepository) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	return order, nil
}

func (r *orderPostgresRepository) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	// seq breaks order_date ties in insertion order.
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, seq`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// CancelOrder flips the status with a single conditional UPDATE restricted
// to cancellable states, so a concurrent fulfillment transition can never
// be overwritten. Zero affected rows is then disambiguated into
// not-found vs. terminal-state conflict.
func (r *orderPostgresRepository) CancelOrder(ctx context.Context, userID, orderID, reason string, at time.Time) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel order tx: %w", err)
	}
	defer tx.Rollback()

	statuses := domain.CancellableStatuses()
	cancellable := make([]string, len(statuses))
	for i, s := range statuses {
		cancellable[i] = string(s)
	}

	query := `UPDATE orders
	          SET status = $1, cancelled_at = $2, cancellation_reason = $3
	          WHERE id = $4 AND user_id = $5 AND status = ANY($6)
	          RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRowContext(ctx, query,
		string(domain.OrderStatusCancelled), at, reason, orderID, userID, pq.Array(cancellable)))
	if errors.Is(err, sql.ErrNoRows) {
		var status string
		e2 := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 AND user_id = $2`,
			orderID, userID).Scan(&status)
		if errors.Is(e2, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		if e2 != nil {
			return nil, fmt.Errorf("query order status: %w", e2)
		}
		return nil, domain.ErrOrderNotCancellable
	}
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, order, EventOrderCancelled); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel order tx: %w", err)
	}
	return order, nil
}

func (r *orderPostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, order_id, event_type, payload, created_at
	          FROM order_events WHERE processed_at IS NULL ORDER BY created_at LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *orderPostgresRepository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, eventType string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event_type, payload) VALUES ($1, $2, $3, $4)`,
		uuid.New(), order.ID, eventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order       domain.Order
		itemsJSON   []byte
		cancelledAt sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.DeliveryAddress,
		&order.PaymentMethod,
		&order.Notes,
		&order.Status,
		&itemsJSON,
		&order.OrderDate,
		&order.EstimatedDelivery,
		&cancelledAt,
		&order.CancellationReason,
	)
	if err != nil {
		return nil, err
	}

	if cancelledAt.Valid {
		t := cancelledAt.Time
		order.CancelledAt = &t
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &order, nil
}
