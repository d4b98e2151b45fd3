package focco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Focco REST API paths
const (
	pathQuotes       = "/api/v1/cotacoes"
	pathSalesOrders  = "/api/v1/pedidos-venda"
	pathInvoicesFmt  = "/api/v1/pedidos-venda/%s/invoices"
	pathStockFmt     = "/api/v1/produtos/%s/saldo"
	catalogCode      = "FoccoERP"
	catalogVersion   = "1"
	productVersion   = "1"
	dateLayout       = "2006-01-02"
	netPriceDecimals = 4
)

// ---------------------------------------------------------------------------
// Request payloads
// ---------------------------------------------------------------------------

// SalesOrderEnvelope is the body of POST /api/v1/pedidos-venda and /api/v1/cotacoes
type SalesOrderEnvelope struct {
	SalesOrder SalesOrderPayload `json:"salesOrder"`
}

// SalesOrderPayload is the order header in Focco's layout
type SalesOrderPayload struct {
	OrderDate        string                  `json:"orderDate"`
	RequestDate      string                  `json:"requestDate"`
	OrderTypeCode    string                  `json:"orderTypeCode"`
	PaymentTermsCode string                  `json:"paymentTermsCode"`
	PlantCode        string                  `json:"plantCode"`
	CurrencyCode     string                  `json:"currencyCode"`
	TaxCode          string                  `json:"taxCode"`
	OrderNoForeign   string                  `json:"orderNoForeign"`
	Organization     OrganizationPayload     `json:"organization"`
	SalesOrderLine   []SalesOrderLinePayload `json:"salesOrderLine"`
}

// OrganizationPayload carries the customer address block
type OrganizationPayload struct {
	Address []AddressPayload `json:"address"`
}

// AddressPayload is one address of the organization block
type AddressPayload struct {
	AddressType string `json:"addressType"`
	Street      string `json:"street"`
	Number      string `json:"number,omitempty"`
	Complement  string `json:"complement,omitempty"`
	District    string `json:"district,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country"`
}

// SalesOrderLinePayload wraps one order line
type SalesOrderLinePayload struct {
	Product ProductLinePayload `json:"product"`
}

// ProductLinePayload is the product part of an order line.
// NetPrice and Qty are strings on the wire.
type ProductLinePayload struct {
	CatalogCode      string `json:"catalogCode"`
	CatalogVersionNo string `json:"catalogVersionNo"`
	ProductCode      string `json:"productCode"`
	ProductVersionNo string `json:"productVersionNo"`
	NetPrice         string `json:"netPrice"`
	Qty              string `json:"qty"`
	ProductUomCode   string `json:"productUomCode"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// FlexibleID accepts an identifier sent either as a JSON string or number
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("focco: id must be a string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// String returns the identifier as text
func (id FlexibleID) String() string {
	return string(id)
}

// SalesOrderResponse is the accepted-order answer of POST /api/v1/pedidos-venda
type SalesOrderResponse struct {
	PedidoVendaID  FlexibleID      `json:"pedidoVendaId"`
	InvoiceID      FlexibleID      `json:"invoiceId"`
	Status         string          `json:"status"`
	ItemsFaturados json.RawMessage `json:"itemsFaturados,omitempty"`
}

// ItemsInvoicedCount interprets itemsFaturados, which is either a count or a list
func (r *SalesOrderResponse) ItemsInvoicedCount() int {
	raw := bytes.TrimSpace(r.ItemsFaturados)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			return len(items)
		}
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := strconv.Atoi(n.String()); err == nil {
			return v
		}
	}
	return 0
}

// parseSalesOrderResponse reads either {"salesOrder": {...}} or the flat form
func parseSalesOrderResponse(body []byte) (*SalesOrderResponse, error) {
	var envelope struct {
		SalesOrder json.RawMessage `json:"salesOrder"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	target := body
	if inner := bytes.TrimSpace(envelope.SalesOrder); len(inner) > 0 && string(inner) != "null" && string(inner) != "{}" {
		target = inner
	}

	var resp SalesOrderResponse
	if err := json.Unmarshal(target, &resp); err != nil {
		return nil, err
	}
	if resp.PedidoVendaID == "" && !bytes.Equal(target, body) {
		// envelope present but without id: fall back to the top level
		var flat SalesOrderResponse
		if err := json.Unmarshal(body, &flat); err == nil && flat.PedidoVendaID != "" {
			return &flat, nil
		}
	}
	return &resp, nil
}

// InvoicesResponse is the answer of GET /api/v1/pedidos-venda/{id}/invoices
type InvoicesResponse struct {
	// NoContent is set for HTTP 204
	NoContent bool
	Invoices  []json.RawMessage
}

// parseInvoicesResponse accepts a JSON array of invoices, an object with an
// "invoices" array, or a single invoice object. Empty bodies, null, {} and []
// mean no invoices.
func parseInvoicesResponse(body []byte) (*InvoicesResponse, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || string(body) == "null" {
		return &InvoicesResponse{}, nil
	}

	switch body[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return &InvoicesResponse{Invoices: list}, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, err
		}
		if len(obj) == 0 {
			return &InvoicesResponse{}, nil
		}
		if inner, ok := obj["invoices"]; ok {
			var list []json.RawMessage
			if err := json.Unmarshal(inner, &list); err != nil {
				return nil, fmt.Errorf("invoices field: %w", err)
			}
			return &InvoicesResponse{Invoices: list}, nil
		}
		return &InvoicesResponse{Invoices: []json.RawMessage{body}}, nil
	}
	return nil, fmt.Errorf("unexpected invoices body starting with %q", body[0])
}
