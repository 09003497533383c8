package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID, reason string) (*domain.Order, error)
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID string, in *service.PlaceOrderInput) (*service.PlaceOrderResult, error)
}

type OrdersHandler struct {
	orders   OrderService
	checkout CheckoutService
}

func NewOrdersHandler(orders OrderService, checkout CheckoutService) *OrdersHandler {
	return &OrdersHandler{orders: orders, checkout: checkout}
}

type orderItemRequestDTO struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  *int     `json:"quantity"`
	Image     string   `json:"image"`
}

type placeOrderRequestDTO struct {
	Items           []orderItemRequestDTO `json:"items"`
	DeliveryAddress string                `json:"deliveryAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	Notes           string                `json:"notes"`
}

type cancelOrderRequestDTO struct {
	Reason string `json:"reason"`
}

type listOrdersResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
	Total  int             `json:"total"`
}

type placeOrderResponseDTO struct {
	*domain.Order
	CartCleared bool   `json:"cartCleared"`
	Warning     string `json:"warning,omitempty"`
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, listOrdersResponseDTO{Orders: orders, Total: len(orders)})
}

// POST /orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req placeOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in := &service.PlaceOrderInput{
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	}
	for _, it := range req.Items {
		if it.Price == nil {
			respondError(w, http.StatusBadRequest, "every item needs a price")
			return
		}
		item := service.OrderItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: *it.Price,
			Image:     it.Image,
			Quantity:  1,
		}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		in.Items = append(in.Items, item)
	}

	result, err := h.checkout.PlaceOrder(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := placeOrderResponseDTO{Order: result.Order, CartCleared: result.CartCleared}
	if !result.CartCleared {
		resp.Warning = "order placed, but the cart could not be cleared"
	}
	respondJSON(w, http.StatusCreated, resp)
}

// GET /orders/{orderID}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PUT /orders/{orderID}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "orderID")

	// The body is optional; an empty reason falls back to the default.
	var req cancelOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), userID, orderID, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
