//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/erp/ordercalc/internal/infrastructure/migration"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ordercalc_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	migrator, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	db, err := open(postgres.Open(dsn), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgres_OrderDifferenceWithReturns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	db := newPostgresDB(t)
	factory := NewGormCalculatableOrderFactory(db)

	orderID := uuid.New()
	draftVersion := uuid.New()
	lineA := uuid.New()
	productA := uuid.New()

	seedOrder(t, db, orderID, ordercalc.LiveVersionID, grossOrder(5, productLine(lineA, productA, "SW-A", 10, 3, 1)))
	seedOrder(t, db, orderID, draftVersion, grossOrder(5, productLine(lineA, productA, "SW-A", 10, 3, 1)))

	// One unit returned on the draft only
	seedReturnOrder(t, db, uuid.New(), orderID, draftVersion, ordercalc.ReturnOrderStateCompleted, time.Now(),
		grossOrder(0, productLine(lineA, productA, "SW-A", 10, 1, 1)))
	seedReturnOrder(t, db, uuid.New(), orderID, draftVersion, ordercalc.ReturnOrderStateCancelled, time.Now().Add(time.Minute),
		grossOrder(0, productLine(lineA, productA, "SW-A", 10, 1, 1)))

	t.Run("loads the order with decimal precision", func(t *testing.T) {
		order, err := factory.CreateCalculatableOrderFromOrder(ctx, orderID, ordercalc.LiveVersionID)
		require.NoError(t, err)
		require.Len(t, order.LineItems, 1)
		assertDecimal(t, "35", order.Price.TotalPrice)
		assertDecimal(t, "5", order.ShippingCosts.TotalPrice)
		assert.Equal(t, ordercalc.TaxStatusGross, order.Price.TaxStatus)
	})

	t.Run("difference counts the completed return", func(t *testing.T) {
		calculator := ordercalc.NewOrderDifferenceCalculator(factory, nil)
		difference, err := calculator.CalculateOrderDifference(ctx, orderID, ordercalc.LiveVersionID, draftVersion)
		require.NoError(t, err)

		require.Len(t, difference.LineItems, 1)
		assert.Equal(t, -1, difference.LineItems[0].Quantity)
		assertDecimal(t, "-10", difference.Price.TotalPrice)
	})
}

func TestPostgres_MigrationsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	db := newPostgresDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	migrator, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	require.NoError(t, migrator.Down())
	assert.False(t, db.Migrator().HasTable("orders"))
}
