package repository

import (
	"context"
	"errors"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

// Outbox event types consumed by the external fulfillment process.
const (
	EventOrderPlaced    = "order_placed"
	EventOrderCancelled = "order_cancelled"
)

// OutboxEvent is written in the same transaction as the order change it
// describes and published asynchronously by the poller.
type OutboxEvent struct {
	ID        uuid.UUID
	OrderID   string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID, reason string, at time.Time) (*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}
