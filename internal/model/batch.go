package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is a purchased lot of one product. QuantityCurrent must equal
// QuantityInitial minus completed sales minus write-offs.
type Batch struct {
	BaseModel
	ShipmentID           *uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id,omitempty"`
	ProductName          string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Unit                 string          `gorm:"type:varchar(20)" json:"unit"`
	QuantityInitial      int             `gorm:"not null" json:"quantity_initial"`
	QuantityCurrent      int             `gorm:"not null" json:"quantity_current"`
	PurchasePricePerUnit decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"purchase_price_per_unit"`
}
