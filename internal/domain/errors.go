package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user is inactive")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")

	ErrRecordNotFound    = errors.New("staging record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("a reason is required to close a record without action")
	ErrRetryNotFailed    = errors.New("only failed extractions can be retried")
	ErrNoLineItems       = errors.New("record has no line items")
	ErrLineItemNotFound  = errors.New("line item not found")
	ErrSupplierNotSet    = errors.New("a supplier must be selected first")
	ErrKindNotDeclared   = errors.New("document kind has not been declared on the record")
	ErrNothingToUnlink   = errors.New("record has no created document to unlink")

	// Extraction input problems. Surfaced with the offending field.
	ErrMissingField = errors.New("extracted invoice is missing a required field")

	// Guard violations. Messages are returned verbatim to the caller.
	ErrOutputAlreadyCreated  = errors.New("an output document has already been created for this record")
	ErrKindMismatch          = errors.New("requested document kind does not match the declared kind")
	ErrStaleReceiptLink      = errors.New("linked purchase receipt was not created against the linked purchase order")
	ErrInvalidAccount        = errors.New("account failed validation")
	ErrReceiptNotMatched     = errors.New("purchase receipt creation requires a fully matched record")
	ErrUnresolvedStockItem   = errors.New("purchase receipt lines require a resolved stock item")
	ErrMissingExpenseAccount = errors.New("journal entry line has no expense account")
	ErrMissingCreditAccount  = errors.New("journal entry requires a credit account")
	ErrMissingTaxAccount     = errors.New("extracted tax requires a configured tax input account")
	ErrUnbalancedEntry       = errors.New("journal entry debits and credits do not balance")
)

// GuardViolations lists the error families that abort document assembly
// without mutating any state.
var GuardViolations = []error{
	ErrOutputAlreadyCreated,
	ErrKindMismatch,
	ErrStaleReceiptLink,
	ErrInvalidAccount,
	ErrReceiptNotMatched,
	ErrUnresolvedStockItem,
	ErrMissingExpenseAccount,
	ErrMissingCreditAccount,
	ErrMissingTaxAccount,
	ErrUnbalancedEntry,
}

// IsGuardViolation reports whether err belongs to the guard violation family.
func IsGuardViolation(err error) bool {
	for _, g := range GuardViolations {
		if errors.Is(err, g) {
			return true
		}
	}
	return false
}
