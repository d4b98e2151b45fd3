package integration

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, raw string) []BalanceRecord {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var records []BalanceRecord
	require.NoError(t, dec.Decode(&records))
	return records
}

func TestSumBalances(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"mixed key casing", `[{"Saldo": 3}, {"saldo": 2}]`, 5.0},
		{"missing field counts as zero", `[{"Saldo": 1.5}, {"almoxarifado": "01"}]`, 1.5},
		{"empty array", `[]`, 0},
		{"numeric string", `[{"Saldo": "2.25"}, {"saldo": 1}]`, 3.25},
		{"null falls through to next key", `[{"Saldo": null, "saldo": 4}]`, 4},
		{"upper case key wins", `[{"Saldo": 7, "saldo": 100}]`, 7},
		{"negative balance", `[{"Saldo": -2}, {"Saldo": 5}]`, 3},
		{"zero falls through to next key", `[{"Saldo": 0, "saldo": 5}]`, 5},
		{"empty string counts as zero", `[{"Saldo": ""}, {"saldo": 2}]`, 2},
		{"empty string falls through", `[{"Saldo": "", "saldo": "1.5"}]`, 1.5},
		{"false counts as zero", `[{"Saldo": false}]`, 0},
		{"empty object counts as zero", `[{"Saldo": {}}]`, 0},
		{"zero string is a value", `[{"Saldo": "0", "saldo": 9}]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SumBalances(decodeRecords(t, tt.raw))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSumBalances_NonNumeric(t *testing.T) {
	for _, raw := range []string{
		`[{"Saldo": 1}, {"Saldo": "abc"}]`,
		`[{"saldo": true}]`,
		`[{"Saldo": {"value": 1}}]`,
		`[{"Saldo": "  "}]`,
	} {
		_, err := SumBalances(decodeRecords(t, raw))
		require.Error(t, err, raw)

		var convErr *ValueConversionError
		require.ErrorAs(t, err, &convErr)
		assert.True(t, errors.Is(err, ErrValueConversion))
	}
}

func TestBalanceRecord_NativeTypes(t *testing.T) {
	total, err := SumBalances([]BalanceRecord{
		{"Saldo": float64(1.5)},
		{"saldo": 2},
		{"Saldo": int64(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.5, total)
}
