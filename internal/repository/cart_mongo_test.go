package repository

import (
	"context"
	"testing"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupCartTestDB(t *testing.T) (CartRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoCartRepository(db)

	mongoRepo := repo.(*mongoCartRepository)
	err = mongoRepo.CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupCartTestDB(t)
	defer cleanup()

	cart, err := repo.GetCart(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestUpsertCart_CreatesAndUpdates(t *testing.T) {
	repo, cleanup := setupCartTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	cart := &domain.Cart{
		UserID: "user123",
		Items: []domain.CartItem{
			{ProductID: "p1", Name: "Milk", UnitPrice: 2.50, Quantity: 2, AddedAt: now, UpdatedAt: now},
		},
	}
	require.NoError(t, repo.UpsertCart(ctx, cart))

	fetched, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", fetched.UserID)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "p1", fetched.Items[0].ProductID)
	assert.Equal(t, 2.50, fetched.Items[0].UnitPrice)
	assert.False(t, fetched.CreatedAt.IsZero())
	assert.False(t, fetched.UpdatedAt.IsZero())

	// Second upsert replaces the item set on the same record.
	cart.Items = append(cart.Items, domain.CartItem{
		ProductID: "p2", Name: "Bread", UnitPrice: 1.00, Quantity: 3, AddedAt: now, UpdatedAt: now,
	})
	require.NoError(t, repo.UpsertCart(ctx, cart))

	fetched, err = repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Len(t, fetched.Items, 2)
}

func TestClearCart_EmptiesButKeepsRecord(t *testing.T) {
	repo, cleanup := setupCartTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	cart := &domain.Cart{
		UserID: "user123",
		Items: []domain.CartItem{
			{ProductID: "p1", Name: "Milk", UnitPrice: 2.50, Quantity: 2, AddedAt: now, UpdatedAt: now},
		},
	}
	require.NoError(t, repo.UpsertCart(ctx, cart))

	clearedAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.ClearCart(ctx, "user123", clearedAt))

	fetched, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Empty(t, fetched.Items)
	require.NotNil(t, fetched.ClearedAt)
	assert.WithinDuration(t, clearedAt, *fetched.ClearedAt, time.Second)
}

func TestClearCart_NotFound(t *testing.T) {
	repo, cleanup := setupCartTestDB(t)
	defer cleanup()

	err := repo.ClearCart(context.Background(), "nonexistent", time.Now().UTC())
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartContextCancellation(t *testing.T) {
	repo, cleanup := setupCartTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := repo.GetCart(ctx, "user123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
