package integration

import (
	"encoding/json"
	"strconv"
	"strings"
)

// BalanceKeys lists the accepted names of the balance field, in lookup order.
var BalanceKeys = []string{"Saldo", "saldo"}

// BalanceRecord is one stock balance entry (one warehouse or branch) as
// returned by the ERP. Only the balance field is interpreted.
type BalanceRecord map[string]any

// Balance returns the record's balance. The first key of BalanceKeys holding
// a non-empty value is used, so {"Saldo": 0, "saldo": 5} is 5. A record
// without any usable key counts as 0.
func (r BalanceRecord) Balance() (float64, error) {
	for _, key := range BalanceKeys {
		v, ok := r[key]
		if !ok || isEmptyBalance(v) {
			continue
		}
		return toFloat(key, v)
	}
	return 0, nil
}

// isEmptyBalance reports values the ERP uses for "no balance here": null,
// zero, false, the empty string and empty containers.
func isEmptyBalance(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == 0
	case float64:
		return n == 0
	case float32:
		return n == 0
	case int:
		return n == 0
	case int64:
		return n == 0
	case bool:
		return !n
	case string:
		return n == ""
	case []any:
		return len(n) == 0
	case map[string]any:
		return len(n) == 0
	}
	return false
}

// SumBalances adds up the balance of every record.
// The first unconvertible value aborts the sum with a *ValueConversionError.
func SumBalances(records []BalanceRecord) (float64, error) {
	total := 0.0
	for _, rec := range records {
		v, err := rec.Balance()
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func toFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &ValueConversionError{Field: field, Value: v, Err: err}
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &ValueConversionError{Field: field, Value: v, Err: err}
		}
		return f, nil
	}
	return 0, &ValueConversionError{Field: field, Value: v}
}
