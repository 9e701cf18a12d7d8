package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
)

type Sale struct {
	BaseModel
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Account       *Account        `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT" json:"account,omitempty"`
	CustomerName  string          `gorm:"type:varchar(255)" json:"customer_name"`
	Status        SaleStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	Total         decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	TransactionID *uuid.UUID      `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Items         []SaleItem      `gorm:"constraint:OnDelete:RESTRICT" json:"items"`
}

type SaleItem struct {
	BaseModel
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	BatchID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_id"`
	Batch        *Batch          `gorm:"foreignKey:BatchID;constraint:OnDelete:RESTRICT" json:"batch,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"price_per_unit"`
}

// LineTotal is Quantity x PricePerUnit
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
