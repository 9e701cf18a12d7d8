package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentOrdered  ShipmentStatus = "ordered"
	ShipmentReceived ShipmentStatus = "received"
)

// Shipment is a purchase of goods funded by one or more partners
type Shipment struct {
	BaseModel
	Number       string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	SupplierName string          `gorm:"type:varchar(255)" json:"supplier_name"`
	TotalCost    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_cost"`
	Status       ShipmentStatus  `gorm:"type:varchar(20);not null;default:'ordered'" json:"status"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	Note         string          `gorm:"type:text" json:"note,omitempty"`

	Investments []ShipmentInvestment `gorm:"constraint:OnDelete:RESTRICT" json:"investments,omitempty"`
	Batches     []Batch              `gorm:"constraint:OnDelete:RESTRICT" json:"batches,omitempty"`
}

// ShipmentInvestment records that a partner funded Percentage of a shipment with Amount
type ShipmentInvestment struct {
	BaseModel
	ShipmentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"shipment_id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Amount     decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Percentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percentage"`
}
