package integration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeParaTable_Translate(t *testing.T) {
	entries := map[string]string{
		"venda":   "1",
		" BONIF ": "7",
	}

	t.Run("lenient table", func(t *testing.T) {
		table := NewDeParaTable("orderTypeCode", entries, false)
		assert.Equal(t, 2, table.Len())

		tests := []struct {
			in   string
			want string
		}{
			{"VENDA", "1"},
			{" venda ", "1"},
			{"bonif", "7"},
			{"CONSIG", "CONSIG"},
			{"", ""},
		}
		for _, tt := range tests {
			got, err := table.Translate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, tt.in)
		}
	})

	t.Run("strict table", func(t *testing.T) {
		table := NewDeParaTable("orderTypeCode", entries, true)

		got, err := table.Translate("venda")
		require.NoError(t, err)
		assert.Equal(t, "1", got)

		_, err = table.Translate("CONSIG")
		var mapErr *MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, "orderTypeCode", mapErr.Field)
		assert.True(t, errors.Is(err, ErrMapping))

		_, err = table.Translate("")
		assert.Error(t, err)
	})
}

func TestNewDeParaTables(t *testing.T) {
	tables := NewDeParaTables(
		map[string]string{"VENDA": "1"},
		map[string]string{"30D": "030"},
		nil,
		false,
	)
	assert.Equal(t, "orderTypeCode", tables.OrderType.Name())
	assert.Equal(t, "paymentTermsCode", tables.PaymentTerms.Name())
	assert.Equal(t, "taxCode", tables.Tax.Name())

	code, err := tables.Tax.Translate("ICMS18")
	require.NoError(t, err)
	assert.Equal(t, "ICMS18", code)
}
