package allocation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/steelerp/backend/internal/domain/shared"
)

// ReallocationEntry is the audit record written after the ledger accepts a
// reallocation. It captures who changed what and why, with the cost impact
// at submission time.
type ReallocationEntry struct {
	shared.BaseEntity
	InvoiceItemID int64
	ProductID     int64
	ReasonCode    ReasonCode
	Note          string
	Changes       []Change
	CostVariance  decimal.Decimal
	SubmittedBy   string
}

// NewReallocationEntry builds an audit entry for an accepted reallocation.
func NewReallocationEntry(invoiceItemID, productID int64, reason ReasonCode, note string, changes []Change, costVariance decimal.Decimal, submittedBy string) *ReallocationEntry {
	return &ReallocationEntry{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceItemID: invoiceItemID,
		ProductID:     productID,
		ReasonCode:    reason,
		Note:          note,
		Changes:       changes,
		CostVariance:  costVariance,
		SubmittedBy:   submittedBy,
	}
}

// ReallocationRepository persists reallocation audit entries.
type ReallocationRepository interface {
	Save(ctx context.Context, entry *ReallocationEntry) error
	FindByInvoiceItem(ctx context.Context, invoiceItemID int64) ([]*ReallocationEntry, error)
}
