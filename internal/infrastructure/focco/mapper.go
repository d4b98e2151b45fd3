package focco

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/erp/focco-sync/internal/domain/trade"
)

// Address types of the organization block
const (
	AddressTypeBilling  = "billing"
	AddressTypeShipping = "shipping"
)

// Mapper converts sales orders into Focco request payloads.
// It performs no I/O; the same order always yields the same payload.
type Mapper struct {
	tables   integration.DeParaTables
	location *time.Location
}

// MapperOption customizes a Mapper
type MapperOption func(*Mapper)

// WithLocation sets the time zone used to render calendar dates (default UTC)
func WithLocation(loc *time.Location) MapperOption {
	return func(m *Mapper) {
		if loc != nil {
			m.location = loc
		}
	}
}

// NewMapper creates a mapper applying the given De-Para tables
func NewMapper(tables integration.DeParaTables, opts ...MapperOption) *Mapper {
	m := &Mapper{tables: tables, location: time.UTC}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BuildSalesOrder maps a confirmed order; the confirmation date becomes requestDate
func (m *Mapper) BuildSalesOrder(order *trade.SalesOrder) (*SalesOrderEnvelope, error) {
	if order.ConfirmedAt == nil || order.ConfirmedAt.IsZero() {
		return nil, &integration.MappingError{Field: "requestDate", Reason: "order has no confirmation date"}
	}
	return m.build(order, *order.ConfirmedAt)
}

// BuildQuote maps an order for tax calculation. Unconfirmed orders use the
// order date as requestDate.
func (m *Mapper) BuildQuote(order *trade.SalesOrder) (*SalesOrderEnvelope, error) {
	requestDate := order.OrderDate
	if order.ConfirmedAt != nil && !order.ConfirmedAt.IsZero() {
		requestDate = *order.ConfirmedAt
	}
	return m.build(order, requestDate)
}

func (m *Mapper) build(order *trade.SalesOrder, requestDate time.Time) (*SalesOrderEnvelope, error) {
	if order.OrderDate.IsZero() {
		return nil, &integration.MappingError{Field: "orderDate", Reason: "order has no order date"}
	}

	orderType, err := m.tables.OrderType.Translate(order.Terms.OrderTypeCode)
	if err != nil {
		return nil, err
	}
	paymentTerms, err := m.tables.PaymentTerms.Translate(order.Terms.PaymentTermsCode)
	if err != nil {
		return nil, err
	}
	taxCode, err := m.tables.Tax.Translate(order.Terms.TaxCode)
	if err != nil {
		return nil, err
	}

	lines := make([]SalesOrderLinePayload, 0, len(order.Items))
	for i := range order.Items {
		line, err := m.buildLine(i, &order.Items[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return &SalesOrderEnvelope{
		SalesOrder: SalesOrderPayload{
			OrderDate:        m.formatDate(order.OrderDate),
			RequestDate:      m.formatDate(requestDate),
			OrderTypeCode:    orderType,
			PaymentTermsCode: paymentTerms,
			PlantCode:        order.Terms.WarehouseCode,
			CurrencyCode:     order.Terms.CurrencyCode,
			TaxCode:          taxCode,
			OrderNoForeign:   order.OrderNumber,
			Organization: OrganizationPayload{
				Address: buildAddresses(order.BillingAddress, order.ShippingAddress),
			},
			SalesOrderLine: lines,
		},
	}, nil
}

func (m *Mapper) buildLine(index int, item *trade.SalesOrderItem) (SalesOrderLinePayload, error) {
	code := strings.TrimSpace(item.ProductCode)
	if code == "" {
		return SalesOrderLinePayload{}, &integration.MappingError{
			Field:  fmt.Sprintf("salesOrderLine[%d].productCode", index),
			Reason: "line has no product code",
		}
	}

	return SalesOrderLinePayload{
		Product: ProductLinePayload{
			CatalogCode:      catalogCode,
			CatalogVersionNo: catalogVersion,
			ProductCode:      code,
			ProductVersionNo: productVersion,
			NetPrice:         item.UnitPrice.StringFixed(netPriceDecimals),
			// fractional quantities are cut, never rounded
			Qty:            item.Quantity.Truncate(0).String(),
			ProductUomCode: item.UnitCode,
		},
	}, nil
}

func (m *Mapper) formatDate(t time.Time) string {
	return t.In(m.location).Format(dateLayout)
}

func buildAddresses(billing, shipping valueobject.Address) []AddressPayload {
	addresses := make([]AddressPayload, 0, 2)
	if !billing.IsEmpty() {
		addresses = append(addresses, toAddressPayload(AddressTypeBilling, billing))
	}
	if !shipping.IsEmpty() {
		addresses = append(addresses, toAddressPayload(AddressTypeShipping, shipping))
	}
	return addresses
}

func toAddressPayload(addressType string, a valueobject.Address) AddressPayload {
	return AddressPayload{
		AddressType: addressType,
		Street:      a.Street(),
		Number:      a.Number(),
		Complement:  a.Complement(),
		District:    a.District(),
		City:        a.City(),
		State:       a.State(),
		ZipCode:     a.PostalCode(),
		Country:     a.Country(),
	}
}
