//go:build integration

package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/focco-sync/internal/domain/catalog"
	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/erp/focco-sync/internal/infrastructure/migration"
	"github.com/erp/focco-sync/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
)

// newPostgresDB starts a disposable PostgreSQL and applies the embedded migrations
func newPostgresDB(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("focco_sync_test"),
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

	db, err := Open(gormpostgres.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.SQL()
	require.NoError(t, err)
	m, err := migration.NewFromFS(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	require.NoError(t, db.Ping(ctx))
	return db
}

func fakeOrder(t *testing.T, faker *gofakeit.Faker, confirmedAt time.Time) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(faker.Numerify("SO-######"), confirmedAt, trade.OrderTerms{
		OrderTypeCode:    "VENDA",
		PaymentTermsCode: "30D",
		CurrencyCode:     "BRL",
	})
	require.NoError(t, err)
	require.NoError(t, order.SetAddresses(
		valueobject.MustNewAddress(faker.Street(), faker.City(), faker.StateAbr()),
		valueobject.EmptyAddress(),
	))
	lines := faker.IntRange(1, 4)
	for i := 0; i < lines; i++ {
		_, err := order.AddItem(
			fmt.Sprintf("P-%03d", i),
			faker.ProductName(),
			"UN",
			decimal.NewFromInt(int64(faker.IntRange(1, 50))),
			decimal.NewFromFloat(faker.Float64Range(0.5, 300)).Round(2),
		)
		require.NoError(t, err)
	}
	require.NoError(t, order.Confirm())
	order.ConfirmedAt = &confirmedAt
	return order
}

func TestPostgres_SalesOrderLifecycle(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormSalesOrderRepository(db.DB)
	ctx := context.Background()
	faker := gofakeit.New(42)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	accepted := fakeOrder(t, faker, base.Add(2*time.Hour))
	older := fakeOrder(t, faker, base)
	neverSent := fakeOrder(t, faker, base.Add(time.Hour))
	for _, o := range []*trade.SalesOrder{accepted, older, neverSent} {
		require.NoError(t, repo.Save(ctx, o))
	}

	exists, err := repo.ExistsByOrderNumber(ctx, accepted.OrderNumber)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, accepted.ExternalSync.MarkSent("1001", base))
	require.NoError(t, repo.SaveExternalSync(ctx, accepted))
	require.NoError(t, older.ExternalSync.MarkSent("1000", base))
	require.NoError(t, repo.SaveExternalSync(ctx, older))
	require.NoError(t, neverSent.ExternalSync.MarkFailed("connection refused", base))
	require.NoError(t, repo.SaveExternalSync(ctx, neverSent))

	awaiting, err := repo.FindAwaitingInvoice(ctx)
	require.NoError(t, err)
	require.Len(t, awaiting, 2)
	assert.Equal(t, older.ID, awaiting[0].ID)
	assert.Equal(t, accepted.ID, awaiting[1].ID)
	assert.Len(t, awaiting[1].Items, len(accepted.Items))

	require.NoError(t, older.ExternalSync.MarkInvoiced(trade.ExternalStatusInvoicedFull, base))
	require.NoError(t, repo.SaveExternalSync(ctx, older))

	awaiting, err = repo.FindAwaitingInvoice(ctx)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, accepted.ID, awaiting[0].ID)

	found, err := repo.FindByOrderNumber(ctx, neverSent.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, trade.ExternalStatusError, found.ExternalSync.Status)
	assert.Equal(t, "connection refused", found.ExternalSync.LastError)
	assert.True(t, found.TotalAmount.Equal(neverSent.TotalAmount))
}

func TestPostgres_ProductStock(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormProductRepository(db.DB)
	ctx := context.Background()
	faker := gofakeit.New(7)

	stocked, err := catalog.NewProduct(faker.Numerify("P-####"), faker.ProductName(), "UN")
	require.NoError(t, err)
	service, err := catalog.NewProduct("", faker.ProductName(), "H")
	require.NoError(t, err)
	other, err := catalog.NewProduct("", faker.ProductName(), "H")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, stocked))
	// empty codes never collide
	require.NoError(t, repo.Save(ctx, service))
	require.NoError(t, repo.Save(ctx, other))

	syncedAt := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateExternalStock(ctx, stocked.ID, 42.75, syncedAt))

	found, err := repo.FindByID(ctx, stocked.ID)
	require.NoError(t, err)
	assert.InDelta(t, 42.75, found.ExternalQtyOnHand, 1e-9)
	require.NotNil(t, found.ExternalStockSyncedAt)
	assert.True(t, syncedAt.Equal(*found.ExternalStockSyncedAt))

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	err = repo.UpdateExternalStock(ctx, uuid.New(), 1, syncedAt)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
