package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	db, err := OpenPostgres(creds)
	require.NoError(t, err)

	err = RunMigrations(db, creds)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func newTestOrder(orderID, userID string, placedAt time.Time) *domain.Order {
	return &domain.Order{
		ID:     orderID,
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Milk", UnitPrice: 2.50, Quantity: 2},
			{ProductID: "p2", Name: "Bread", UnitPrice: 1.00, Quantity: 3},
		},
		TotalAmount:       8.00,
		DeliveryAddress:   "12 Baker Street",
		PaymentMethod:     domain.PaymentMethodCard,
		Status:            domain.OrderStatusConfirmed,
		OrderDate:         placedAt,
		EstimatedDelivery: placedAt.Add(24 * time.Hour),
	}
}

func TestCreateOrder_PersistsOrderAndOutboxEvent(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	order := newTestOrder("ORD-20250310120000-AB12CD", "user-123", now)

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrder(ctx, "user-123", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.Equal(t, 8.00, fetched.TotalAmount)
	assert.Equal(t, domain.OrderStatusConfirmed, fetched.Status)
	assert.Equal(t, domain.PaymentMethodCard, fetched.PaymentMethod)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, "p1", fetched.Items[0].ProductID)
	assert.Nil(t, fetched.CancelledAt)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.Equal(t, EventOrderPlaced, events[0].EventType)
}

func TestGetOrder_NotFound(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	_, err := repo.GetOrder(context.Background(), "user-123", "ORD-missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	order := newTestOrder("ORD-20250310120000-AB12CD", "user-123", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := repo.GetOrder(ctx, "someone-else", order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	userID := "user-list-test"
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := newTestOrder("ORD-20250310110000-AAAAAA", userID, now.Add(-time.Hour))
	require.NoError(t, repo.CreateOrder(ctx, older))

	newer := newTestOrder("ORD-20250310120000-BBBBBB", userID, now)
	require.NoError(t, repo.CreateOrder(ctx, newer))

	other := newTestOrder("ORD-20250310120000-CCCCCC", "someone-else", now)
	require.NoError(t, repo.CreateOrder(ctx, other))

	orders, err := repo.ListOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestListOrders_TiesBreakInInsertionOrder(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	userID := "user-tie-test"
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		order := newTestOrder(fmt.Sprintf("ORD-20250310120000-TIE%03d", i), userID, now)
		require.NoError(t, repo.CreateOrder(ctx, order))
	}

	orders, err := repo.ListOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "ORD-20250310120000-TIE000", orders[0].ID)
	assert.Equal(t, "ORD-20250310120000-TIE002", orders[2].ID)
}

func TestCancelOrder_Success(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	order := newTestOrder("ORD-20250310120000-AB12CD", "user-123", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	cancelledAt := time.Now().UTC().Truncate(time.Millisecond)
	cancelled, err := repo.CancelOrder(ctx, "user-123", order.ID, "changed my mind", cancelledAt)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.WithinDuration(t, cancelledAt, *cancelled.CancelledAt, time.Second)

	// Both lifecycle events sit in the outbox.
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventOrderPlaced, events[0].EventType)
	assert.Equal(t, EventOrderCancelled, events[1].EventType)
}

func TestCancelOrder_NotFound(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	_, err := repo.CancelOrder(context.Background(), "user-123", "ORD-missing", "", time.Now().UTC())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder_TerminalStateConflict(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	order := newTestOrder("ORD-20250310120000-AB12CD", "user-123", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := repo.CancelOrder(ctx, "user-123", order.ID, "", time.Now().UTC())
	require.NoError(t, err)

	// Second cancel hits a terminal state, not a missing order.
	_, err = repo.CancelOrder(ctx, "user-123", order.ID, "again", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrOrderNotCancellable)
}

func TestMarkEventAsProcessed(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresOrderRepository(db)

	ctx := context.Background()
	order := newTestOrder("ORD-20250310120000-AB12CD", "user-123", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUserRepository(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	repo := NewPostgresUserRepository(db)

	ctx := context.Background()
	user := &domain.User{
		ID:           "2f0c93a8-5b0e-4f43-9d38-1f1f64a1a001",
		Email:        "jo@example.com",
		Name:         "Jo",
		PasswordHash: "argon2-hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	fetched, err := repo.GetUserByEmail(ctx, "JO@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.ID)
	assert.Equal(t, "jo@example.com", fetched.Email)

	fetched, err = repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jo", fetched.Name)

	// Same address with different casing violates the unique index.
	dup := &domain.User{
		ID:           "2f0c93a8-5b0e-4f43-9d38-1f1f64a1a002",
		Email:        "Jo@Example.com",
		Name:         "Jo Again",
		PasswordHash: "argon2-hash",
		CreatedAt:    time.Now().UTC(),
	}
	err = repo.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
