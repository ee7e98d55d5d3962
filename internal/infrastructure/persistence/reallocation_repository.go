package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
)

// ReallocationModel is the persistence form of allocation.ReallocationEntry.
// The change set is stored as a JSON document; it is only ever read back
// whole for display, never queried into.
type ReallocationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	CreatedAt     time.Time       `gorm:"not null;index"`
	UpdatedAt     time.Time       `gorm:"not null"`
	InvoiceItemID int64           `gorm:"not null;index"`
	ProductID     int64           `gorm:"not null"`
	ReasonCode    string          `gorm:"size:32;not null"`
	Note          string          `gorm:"type:text"`
	ChangesJSON   string          `gorm:"column:changes;type:text;not null"`
	CostVariance  decimal.Decimal `gorm:"type:numeric(14,4)"`
	SubmittedBy   string          `gorm:"size:64"`
}

// TableName overrides the table name
func (ReallocationModel) TableName() string {
	return "reallocation_entries"
}

// ToDomain converts the model to a domain entry
func (m *ReallocationModel) ToDomain() (*allocation.ReallocationEntry, error) {
	var changes []allocation.Change
	if m.ChangesJSON != "" {
		if err := json.Unmarshal([]byte(m.ChangesJSON), &changes); err != nil {
			return nil, fmt.Errorf("failed to decode reallocation changes: %w", err)
		}
	}
	return &allocation.ReallocationEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		InvoiceItemID: m.InvoiceItemID,
		ProductID:     m.ProductID,
		ReasonCode:    allocation.ReasonCode(m.ReasonCode),
		Note:          m.Note,
		Changes:       changes,
		CostVariance:  m.CostVariance,
		SubmittedBy:   m.SubmittedBy,
	}, nil
}

// FromDomain populates the model from a domain entry
func (m *ReallocationModel) FromDomain(e *allocation.ReallocationEntry) error {
	changesJSON, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode reallocation changes: %w", err)
	}
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
	m.InvoiceItemID = e.InvoiceItemID
	m.ProductID = e.ProductID
	m.ReasonCode = string(e.ReasonCode)
	m.Note = e.Note
	m.ChangesJSON = string(changesJSON)
	m.CostVariance = e.CostVariance
	m.SubmittedBy = e.SubmittedBy
	return nil
}

// GormReallocationRepository implements allocation.ReallocationRepository using GORM
type GormReallocationRepository struct {
	db *gorm.DB
}

// NewGormReallocationRepository creates a new GormReallocationRepository
func NewGormReallocationRepository(db *gorm.DB) *GormReallocationRepository {
	return &GormReallocationRepository{db: db}
}

// Save persists an audit entry
func (r *GormReallocationRepository) Save(ctx context.Context, entry *allocation.ReallocationEntry) error {
	var model ReallocationModel
	if err := model.FromDomain(entry); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByInvoiceItem returns audit entries for an invoice item, newest first
func (r *GormReallocationRepository) FindByInvoiceItem(ctx context.Context, invoiceItemID int64) ([]*allocation.ReallocationEntry, error) {
	var models []ReallocationModel
	if err := r.db.WithContext(ctx).
		Where("invoice_item_id = ?", invoiceItemID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]*allocation.ReallocationEntry, 0, len(models))
	for i := range models {
		entry, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var _ allocation.ReallocationRepository = (*GormReallocationRepository)(nil)
