package catalog

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		pname   string
		unit    string
		wantErr bool
	}{
		{"valid", "A1", "Parafuso", "UN", false},
		{"empty code is allowed", "", "Servico", "UN", false},
		{"empty name", "A1", " ", "UN", true},
		{"empty unit", "A1", "Parafuso", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tt.code, tt.pname, tt.unit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.IsActive())
			assert.Equal(t, tt.code != "", p.HasExternalCode())
		})
	}
}

func TestProduct_UpdateExternalStock(t *testing.T) {
	p, err := NewProduct("A1", "Parafuso", "UN")
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, p.UpdateExternalStock(5, at))
	assert.Equal(t, 5.0, p.ExternalQtyOnHand)
	require.NotNil(t, p.ExternalStockSyncedAt)
	assert.Equal(t, at, *p.ExternalStockSyncedAt)

	require.NoError(t, p.UpdateExternalStock(-2.5, at))
	assert.Equal(t, -2.5, p.ExternalQtyOnHand)

	assert.Error(t, p.UpdateExternalStock(math.NaN(), at))
	assert.Equal(t, -2.5, p.ExternalQtyOnHand)
}
