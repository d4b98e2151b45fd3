package integration

import (
	"context"
	"testing"

	"github.com/erp/focco-sync/internal/domain/catalog"
	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("with focco code", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ExistsByCode", ctx, "A1").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := NewProductService(repo).Create(ctx, CreateProductRequest{Code: " A1 ", Name: "Parafuso", Unit: "UN"})
		require.NoError(t, err)
		assert.Equal(t, "A1", resp.Code)
		assert.Equal(t, "active", resp.Status)
		assert.Zero(t, resp.ExternalQtyOnHand)
	})

	t.Run("without code skips uniqueness check", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		_, err := NewProductService(repo).Create(ctx, CreateProductRequest{Name: "Servico", Unit: "H"})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "ExistsByCode", mock.Anything, mock.Anything)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ExistsByCode", ctx, "A1").Return(true, nil)

		_, err := NewProductService(repo).Create(ctx, CreateProductRequest{Code: "A1", Name: "Parafuso", Unit: "UN"})
		assert.ErrorIs(t, err, ErrProductCodeTaken)
	})
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProductRepository)
	product, err := catalog.NewProduct("A1", "Parafuso", "UN")
	require.NoError(t, err)
	missing := uuid.New()

	repo.On("FindByID", ctx, product.ID).Return(product, nil)
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	resp, err := NewProductService(repo).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, resp.ID)

	_, err = NewProductService(repo).GetByID(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
