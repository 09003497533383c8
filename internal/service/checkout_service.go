package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
)

// CartClearer is the one cart operation checkout needs.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// CheckoutService turns a priced item list into an immutable order and
// empties the originating cart. The order is the authoritative record; the
// cart wipe is a best-effort convenience, not part of the transaction.
type CheckoutService struct {
	orders repository.OrderRepository
	carts  CartClearer
}

func NewCheckoutService(orders repository.OrderRepository, carts CartClearer) *CheckoutService {
	return &CheckoutService{orders: orders, carts: carts}
}

type OrderItemInput struct {
	ProductID string
	Name      string
	UnitPrice float64
	Quantity  int
	Image     string
}

type PlaceOrderInput struct {
	Items           []OrderItemInput
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
}

type PlaceOrderResult struct {
	Order *domain.Order
	// CartCleared is false when the order was persisted but the
	// post-checkout cart wipe failed.
	CartCleared bool
}

func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, in *PlaceOrderInput) (*PlaceOrderResult, error) {
	order, err := buildOrder(userID, in, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	cleared := true
	if _, err := s.carts.ClearCart(ctx, userID); err != nil {
		// A user checking out without a cart record has nothing to clear.
		if !errors.Is(err, repository.ErrCartNotFound) {
			log.Printf("post-checkout cart clear failed for user %s: %v", userID, err)
			cleared = false
		}
	}

	return &PlaceOrderResult{Order: order, CartCleared: cleared}, nil
}

func buildOrder(userID string, in *PlaceOrderInput, now time.Time) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("order must contain at least one item")
	}
	if in.DeliveryAddress == "" {
		return nil, domain.NewValidationError("deliveryAddress is required")
	}
	method := domain.PaymentMethod(in.PaymentMethod)
	if in.PaymentMethod == "" {
		return nil, domain.NewValidationError("paymentMethod is required")
	}
	if !method.Valid() {
		return nil, domain.Validationf("unsupported payment method %q", in.PaymentMethod)
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	total := 0.0
	for i, it := range in.Items {
		if it.ProductID == "" || it.Name == "" {
			return nil, domain.Validationf("item %d is missing productId or name", i)
		}
		if it.UnitPrice < 0 {
			return nil, domain.Validationf("item %d has a negative price", i)
		}
		if it.Quantity < 1 {
			return nil, domain.Validationf("item %d must have quantity of at least 1", i)
		}
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
		total += it.UnitPrice * float64(it.Quantity)
	}

	return &domain.Order{
		ID:                newOrderID(now),
		UserID:            userID,
		Items:             items,
		TotalAmount:       domain.Round2(total),
		DeliveryAddress:   in.DeliveryAddress,
		PaymentMethod:     method,
		Notes:             in.Notes,
		Status:            domain.OrderStatusConfirmed,
		OrderDate:         now,
		EstimatedDelivery: now.Add(domain.DeliveryEstimateWindow),
	}, nil
}

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newOrderID builds an externally visible id: prefix, creation timestamp
// and a short random alphanumeric suffix.
func newOrderID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}
