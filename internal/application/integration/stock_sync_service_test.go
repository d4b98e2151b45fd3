package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/focco-sync/internal/domain/catalog"
	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, code string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Produto "+code, "UN")
	require.NoError(t, err)
	return *p
}

func balances(t *testing.T, raw string) []integration.BalanceRecord {
	t.Helper()
	var records []integration.BalanceRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

func TestStockSyncService_SyncProducts(t *testing.T) {
	ctx := context.Background()

	repo := new(MockProductRepository)
	gateway := new(MockERPGateway)
	products := []catalog.Product{
		newProduct(t, "A1"),
		newProduct(t, ""),
		newProduct(t, "B2"),
		newProduct(t, "C3"),
	}

	gateway.On("GetProductStock", ctx, "A1").Return(balances(t, `[{"Saldo":2},{"saldo":"3.5"},{"deposito":"X"}]`), nil)
	gateway.On("GetProductStock", ctx, "B2").Return(nil, &integration.RemoteRequestError{StatusCode: 404, Body: "not found"})
	gateway.On("GetProductStock", ctx, "C3").Return(balances(t, `[]`), nil)
	repo.On("UpdateExternalStock", ctx, products[0].ID, 5.5, fixedNow).Return(nil).Once()
	repo.On("UpdateExternalStock", ctx, products[3].ID, 0.0, fixedNow).Return(nil).Once()

	svc := NewStockSyncService(repo, gateway, nil, WithClock(fixedClock))
	summary, err := svc.SyncProducts(ctx, products)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "B2", summary.Failures[0].Reference)

	assert.InDelta(t, 5.5, products[0].ExternalQtyOnHand, 1e-9)
	assert.Zero(t, products[2].ExternalQtyOnHand)
	assert.Nil(t, products[2].ExternalStockSyncedAt)

	gateway.AssertNotCalled(t, "GetProductStock", mock.Anything, "")
	repo.AssertExpectations(t)
}

func TestStockSyncService_NonNumericBalance(t *testing.T) {
	ctx := context.Background()

	repo := new(MockProductRepository)
	gateway := new(MockERPGateway)
	products := []catalog.Product{newProduct(t, "A1"), newProduct(t, "B2")}

	gateway.On("GetProductStock", ctx, "A1").Return(balances(t, `[{"Saldo":"abc"}]`), nil)
	gateway.On("GetProductStock", ctx, "B2").Return(balances(t, `[{"Saldo":1}]`), nil)
	repo.On("UpdateExternalStock", ctx, products[1].ID, 1.0, mock.Anything).Return(nil)

	summary, err := NewStockSyncService(repo, gateway, nil).SyncProducts(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].Error, "abc")
	repo.AssertNumberOfCalls(t, "UpdateExternalStock", 1)
}

// One failing product out of N leaves the other N-1 updated.
func TestStockSyncService_SingleFailureIsolated(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(7)

	for n := 2; n <= 6; n++ {
		repo := new(MockProductRepository)
		gateway := new(MockERPGateway)

		products := make([]catalog.Product, n)
		for i := range products {
			products[i] = newProduct(t, faker.Numerify("P####")+string(rune('a'+i)))
		}
		failing := faker.IntRange(0, n-1)

		for i, p := range products {
			if i == failing {
				gateway.On("GetProductStock", ctx, p.Code).Return(nil, &integration.TransportError{Err: errors.New("timeout")})
				continue
			}
			gateway.On("GetProductStock", ctx, p.Code).Return(balances(t, `[{"Saldo":1}]`), nil)
		}
		repo.On("UpdateExternalStock", ctx, mock.Anything, 1.0, mock.Anything).Return(nil)

		summary, err := NewStockSyncService(repo, gateway, nil).SyncProducts(ctx, products)
		require.NoError(t, err)
		assert.Equal(t, n-1, summary.Updated)
		assert.Equal(t, 1, summary.Failed)
		repo.AssertNumberOfCalls(t, "UpdateExternalStock", n-1)
	}
}

func TestStockSyncService_SyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("loads active products", func(t *testing.T) {
		repo := new(MockProductRepository)
		gateway := new(MockERPGateway)
		product := newProduct(t, "A1")

		repo.On("FindActive", ctx).Return([]catalog.Product{product}, nil)
		repo.On("UpdateExternalStock", ctx, product.ID, 7.0, fixedNow).Return(nil)
		gateway.On("GetProductStock", ctx, "A1").Return(balances(t, `[{"saldo":7}]`), nil)

		summary, err := NewStockSyncService(repo, gateway, nil, WithClock(fixedClock)).SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Updated)
		assert.Equal(t, fixedNow, summary.StartedAt)
	})

	t.Run("query failure", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindActive", ctx).Return(nil, errors.New("db down"))

		_, err := NewStockSyncService(repo, new(MockERPGateway), nil).SyncAll(ctx)
		assert.Error(t, err)
	})
}
