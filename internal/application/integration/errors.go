package integration

import "github.com/erp/focco-sync/internal/domain/shared"

// Errors returned by the sync services to their callers
var (
	ErrOrderNotConfirmed     = shared.NewDomainError("ORDER_NOT_CONFIRMED", "Only confirmed orders can be submitted to Focco")
	ErrOrderAlreadySubmitted = shared.NewDomainError("ORDER_ALREADY_SUBMITTED", "Order was already accepted by Focco")
	ErrOrderNumberTaken      = shared.NewDomainError("ORDER_NUMBER_TAKEN", "Order number already exists")
	ErrProductCodeTaken      = shared.NewDomainError("PRODUCT_CODE_TAKEN", "Product code already exists")
)
