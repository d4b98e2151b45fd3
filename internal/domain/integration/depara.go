package integration

import (
	"fmt"
	"strings"
)

// DeParaTable translates local codes into ERP codes ("de" local "para" ERP).
// Lookups ignore case and surrounding blanks. A non-strict table passes
// unknown codes through unchanged.
type DeParaTable struct {
	name    string
	entries map[string]string
	strict  bool
}

// NewDeParaTable builds a table from local → ERP pairs
func NewDeParaTable(name string, entries map[string]string, strict bool) DeParaTable {
	normalized := make(map[string]string, len(entries))
	for from, to := range entries {
		normalized[normalizeCode(from)] = strings.TrimSpace(to)
	}
	return DeParaTable{name: name, entries: normalized, strict: strict}
}

// Name returns the table name used in errors
func (t DeParaTable) Name() string {
	return t.name
}

// Len returns the number of entries
func (t DeParaTable) Len() int {
	return len(t.entries)
}

// Translate maps a local code to its ERP equivalent
func (t DeParaTable) Translate(code string) (string, error) {
	key := normalizeCode(code)
	if to, ok := t.entries[key]; ok {
		return to, nil
	}
	if t.strict {
		if key == "" {
			return "", &MappingError{Field: t.name, Reason: "code is required"}
		}
		return "", &MappingError{Field: t.name, Reason: fmt.Sprintf("no mapping for code %q", code)}
	}
	return strings.TrimSpace(code), nil
}

// DeParaTables groups the translation tables applied to an order
type DeParaTables struct {
	OrderType    DeParaTable
	PaymentTerms DeParaTable
	Tax          DeParaTable
}

// NewDeParaTables builds the three order tables with a shared strictness
func NewDeParaTables(orderType, paymentTerms, tax map[string]string, strict bool) DeParaTables {
	return DeParaTables{
		OrderType:    NewDeParaTable("orderTypeCode", orderType, strict),
		PaymentTerms: NewDeParaTable("paymentTermsCode", paymentTerms, strict),
		Tax:          NewDeParaTable("taxCode", tax, strict),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
