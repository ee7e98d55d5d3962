package allocation

// ReasonCode is the audited justification for changing committed batch
// allocations. Values are contract strings shared with the stock ledger.
type ReasonCode string

const (
	ReasonCustomerRequest     ReasonCode = "CUSTOMER_REQUEST"
	ReasonQualityIssue        ReasonCode = "QUALITY_ISSUE"
	ReasonCertificateMismatch ReasonCode = "CERTIFICATE_MISMATCH"
	ReasonEntryError          ReasonCode = "ENTRY_ERROR"
	ReasonStockAdjustment     ReasonCode = "STOCK_ADJUSTMENT"
	ReasonSupervisorOverride  ReasonCode = "SUPERVISOR_OVERRIDE"
)

var reasonDescriptions = map[ReasonCode]string{
	ReasonCustomerRequest:     "Customer asked for specific batch/heat number",
	ReasonQualityIssue:        "Original batch has quality concerns",
	ReasonCertificateMismatch: "Mill cert does not match requirements",
	ReasonEntryError:          "Operator made a mistake",
	ReasonStockAdjustment:     "Inventory count correction",
	ReasonSupervisorOverride:  "Manager decision",
}

// Valid reports whether the code is one of the enumerated reason codes.
func (r ReasonCode) Valid() bool {
	_, ok := reasonDescriptions[r]
	return ok
}

// Description returns the human-readable description for the code, or empty
// for unknown codes.
func (r ReasonCode) Description() string {
	return reasonDescriptions[r]
}

// ReasonCodes returns all valid reason codes in a stable order.
func ReasonCodes() []ReasonCode {
	return []ReasonCode{
		ReasonCustomerRequest,
		ReasonQualityIssue,
		ReasonCertificateMismatch,
		ReasonEntryError,
		ReasonStockAdjustment,
		ReasonSupervisorOverride,
	}
}
