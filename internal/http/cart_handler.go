package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CartService is the slice of the cart manager the handlers call.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequestDTO struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Image     string   `json:"image"`
	Quantity  *int     `json:"quantity"`
}

type updateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type cartResponseDTO struct {
	Items      []domain.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
}

func newCartResponse(cart *domain.Cart) cartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponseDTO{
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req addItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Price == nil {
		respondError(w, http.StatusBadRequest, "price is required")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddItem(r.Context(), userID, domain.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: *req.Price,
		Image:     req.Image,
		Quantity:  quantity,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "productID")

	var req updateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), userID, productID, *req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "productID")

	cart, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	cart, err := h.carts.ClearCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}
