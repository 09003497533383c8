package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/cache"
	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CartService owns all access to a user's cart. Every read-modify-write
// runs under that user's mutex, so concurrent requests from the same user
// (two browser tabs) cannot lose each other's updates.
type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	locks sync.Map           // userID -> *sync.Mutex
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

func (s *CartService) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetCart returns the user's cart, creating an empty record on first
// access. Get-or-create, never an error for a missing cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) {
			return s.createEmptyCart(ctx, userID)
		}
		if errGet != nil {
			return nil, errGet
		}

		// Fill the cache before returning. A detached fill could land
		// after a later write's invalidation and resurrect stale items.
		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			log.Printf("cache set error: %v", errSet)
		}

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) createEmptyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	// A concurrent request may have created the record already.
	cart, err := s.repo.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	cart = &domain.Cart{
		UserID: userID,
		Items:  []domain.CartItem{},
	}
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem appends a new line or, when the product is already present,
// accumulates its quantity without touching the stored name or price.
func (s *CartService) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ProductID == "" {
		return nil, domain.NewValidationError("productId is required")
	}
	if item.Name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if item.UnitPrice < 0 {
		return nil, domain.NewValidationError("price must not be negative")
	}
	if item.Quantity < 1 {
		return nil, domain.NewValidationError("quantity must be at least 1")
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing := cart.Item(item.ProductID); existing != nil {
		existing.Quantity += item.Quantity
		existing.UpdatedAt = now
	} else {
		item.AddedAt = now
		item.UpdatedAt = now
		cart.Items = append(cart.Items, item)
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

// UpdateItemQuantity sets the line quantity; zero deletes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.NewValidationError("quantity must not be negative")
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := cart.Item(productID)
	if item == nil {
		return nil, repository.ErrItemNotFound
	}

	if quantity == 0 {
		cart.Items = removeLine(cart.Items, productID)
	} else {
		item.Quantity = quantity
		item.UpdatedAt = time.Now().UTC()
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart.Item(productID) == nil {
		return nil, repository.ErrItemNotFound
	}

	cart.Items = removeLine(cart.Items, productID)

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

// ClearCart empties the item set and stamps clearedAt. Emptying an
// already-empty cart succeeds; only a missing cart record is an error.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.ClearCart(ctx, userID, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.GetCart(ctx, userID)
}

func (s *CartService) loadOrInit(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func removeLine(items []domain.CartItem, productID string) []domain.CartItem {
	for i, item := range items {
		if item.ProductID == productID {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
