package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/domain/shared"
)

// ExternalStatus is the ERP-side lifecycle of a sales order
type ExternalStatus string

const (
	ExternalStatusPending         ExternalStatus = "pending"
	ExternalStatusSent            ExternalStatus = "sent"
	ExternalStatusInvoicedPartial ExternalStatus = "invoiced_partial"
	ExternalStatusInvoicedFull    ExternalStatus = "invoiced_full"
	ExternalStatusError           ExternalStatus = "error"
)

// IsValid checks if the status is a known ExternalStatus
func (s ExternalStatus) IsValid() bool {
	switch s {
	case ExternalStatusPending, ExternalStatusSent, ExternalStatusInvoicedPartial,
		ExternalStatusInvoicedFull, ExternalStatusError:
		return true
	}
	return false
}

// String returns the string representation of ExternalStatus
func (s ExternalStatus) String() string {
	return string(s)
}

// IsInvoiced reports whether the status is one of the invoiced states
func (s ExternalStatus) IsInvoiced() bool {
	return s == ExternalStatusInvoicedPartial || s == ExternalStatusInvoicedFull
}

// CanTransitionTo checks if the status can move to target.
// Nothing ever returns to pending; error only leaves through a new submission.
func (s ExternalStatus) CanTransitionTo(target ExternalStatus) bool {
	switch s {
	case ExternalStatusPending, ExternalStatusError:
		return target == ExternalStatusSent || target == ExternalStatusError
	case ExternalStatusSent:
		return target.IsInvoiced()
	case ExternalStatusInvoicedPartial:
		return target == ExternalStatusInvoicedFull
	case ExternalStatusInvoicedFull:
		return false
	}
	return false
}

// ExternalSync holds the ERP synchronization state appended to a sales order.
// The fields are only changed through the Mark* methods.
type ExternalSync struct {
	ExternalOrderID string
	Status          ExternalStatus
	InvoiceReceived bool
	LastError       string
	LastSyncedAt    *time.Time
}

// NewExternalSync returns the initial state of a never-submitted order
func NewExternalSync() ExternalSync {
	return ExternalSync{Status: ExternalStatusPending}
}

// HasExternalOrderID reports whether the ERP ever accepted the order
func (s ExternalSync) HasExternalOrderID() bool {
	return s.ExternalOrderID != ""
}

// CanSubmit reports whether a submission may be attempted
func (s ExternalSync) CanSubmit() bool {
	return !s.HasExternalOrderID()
}

// AwaitingInvoice reports whether invoice polling applies to the order
func (s ExternalSync) AwaitingInvoice() bool {
	return s.HasExternalOrderID() && !s.InvoiceReceived
}

// MarkSent records a successful submission
func (s *ExternalSync) MarkSent(externalOrderID string, at time.Time) error {
	externalOrderID = strings.TrimSpace(externalOrderID)
	if externalOrderID == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External order ID cannot be empty")
	}
	if s.HasExternalOrderID() {
		return shared.NewDomainError("ALREADY_SUBMITTED",
			fmt.Sprintf("Order already submitted as %s", s.ExternalOrderID))
	}
	if !s.Status.CanTransitionTo(ExternalStatusSent) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark order as sent in %s status", s.Status))
	}

	s.ExternalOrderID = externalOrderID
	s.Status = ExternalStatusSent
	s.LastError = ""
	s.LastSyncedAt = &at
	return nil
}

// MarkFailed records a failed submission
func (s *ExternalSync) MarkFailed(reason string, at time.Time) error {
	if !s.Status.CanTransitionTo(ExternalStatusError) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark order as failed in %s status", s.Status))
	}

	s.Status = ExternalStatusError
	s.LastError = reason
	s.LastSyncedAt = &at
	return nil
}

// MarkInvoiced records that the ERP issued invoices for the order
func (s *ExternalSync) MarkInvoiced(status ExternalStatus, at time.Time) error {
	if !status.IsInvoiced() {
		return shared.NewDomainError("INVALID_STATUS",
			fmt.Sprintf("%s is not an invoiced status", status))
	}
	if !s.HasExternalOrderID() {
		return shared.NewDomainError("NOT_SUBMITTED", "Order was never accepted by the ERP")
	}
	if !s.Status.CanTransitionTo(status) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark order as %s in %s status", status, s.Status))
	}

	s.Status = status
	s.InvoiceReceived = true
	s.LastSyncedAt = &at
	return nil
}
