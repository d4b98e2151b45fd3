// Package integration contains the ERP integration bounded context.
// It describes how local sales orders and products are synchronized with the
// Focco ERP without knowing anything about HTTP.
//
// Key concepts:
//   - ERPGateway: port for submitting orders, polling invoices and reading stock
//   - DeParaTable: fixed lookup translating a local code into the ERP equivalent
//   - BalanceRecord / SumBalances: stock balance records and their aggregation
//   - RemoteRequestError, TransportError, ValueConversionError, MappingError:
//     the failure taxonomy every adapter must report through
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
