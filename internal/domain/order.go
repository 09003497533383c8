package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CancellableStatuses lists every state cancellation may leave from.
// Stores enforcing the transition conditionally must use this list, not
// their own copy of the state machine.
func CancellableStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped}
}

// CanCancel reports whether cancellation is a legal transition from s.
func (s OrderStatus) CanCancel() bool {
	for _, c := range CancellableStatuses() {
		if s == c {
			return true
		}
	}
	return false
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodOther  PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodPaypal, PaymentMethodOther:
		return true
	}
	return false
}

// DeliveryEstimateWindow is added to the order date to produce the
// estimated delivery timestamp.
const DeliveryEstimateWindow = 24 * time.Hour

// DefaultCancellationReason is recorded when the caller gives none.
const DefaultCancellationReason = "Cancelled by customer"

// OrderItem is a snapshot of a cart line at checkout time. Later price or
// name changes to the product never reach a placed order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type Order struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"userId"`
	Items              []OrderItem   `json:"items"`
	TotalAmount        float64       `json:"totalAmount"`
	DeliveryAddress    string        `json:"deliveryAddress"`
	PaymentMethod      PaymentMethod `json:"paymentMethod"`
	Notes              string        `json:"notes,omitempty"`
	Status             OrderStatus   `json:"status"`
	OrderDate          time.Time     `json:"orderDate"`
	EstimatedDelivery  time.Time     `json:"estimatedDelivery"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
}

// Cancel moves the order into cancelled. Only the status fields change;
// terminal orders reject the transition.
func (o *Order) Cancel(reason string, at time.Time) error {
	if !o.Status.CanCancel() {
		return ErrOrderNotCancellable
	}
	if reason == "" {
		reason = DefaultCancellationReason
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &at
	o.CancellationReason = reason
	return nil
}
