package service

import (
	"context"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
)

// OrderService owns the order lifecycle after creation: querying and the
// cancellation transition. Creation itself goes through CheckoutService.
type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// ListOrders returns the user's orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, userID, orderID)
}

// CancelOrder cancels an order the user owns. Orders already delivered or
// cancelled reject the transition with domain.ErrOrderNotCancellable.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID, reason string) (*domain.Order, error) {
	if reason == "" {
		reason = domain.DefaultCancellationReason
	}
	return s.repo.CancelOrder(ctx, userID, orderID, reason, time.Now().UTC())
}
