package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrSnapshotUnavailable  = NewDomainError("SNAPSHOT_UNAVAILABLE", "Stock snapshot could not be loaded")
	ErrNoBatchesAvailable   = NewDomainError("NO_BATCHES_AVAILABLE", "No available batches found for this product")
	ErrNoChangesDetected    = NewDomainError("NO_CHANGES_DETECTED", "No changes detected")
	ErrIncompleteAllocation = NewDomainError("INCOMPLETE_ALLOCATION", "Total allocated must equal required quantity")
	ErrInvalidReasonCode    = NewDomainError("INVALID_REASON_CODE", "A valid reason code is required")
	ErrRemoteRejected       = NewDomainError("REMOTE_REJECTED", "Reallocation rejected by the stock ledger")
)
