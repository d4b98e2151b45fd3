// Package models holds the gorm rows of the sales_orders, sales_order_items
// and products tables and their conversion to and from the domain aggregates.
// The external_* columns mirror the Focco ERP and are written separately
// from the columns owned by the host ERP.
package models
