package repository

import (
	"context"
	"errors"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	ClearCart(ctx context.Context, userID string, clearedAt time.Time) error
}
