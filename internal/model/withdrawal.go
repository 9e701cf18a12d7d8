package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalType string

const (
	WithdrawalCash  WithdrawalType = "cash"
	WithdrawalGoods WithdrawalType = "goods"
)

// PartnerWithdrawal takes money (cash) or goods out of the business on behalf
// of a partner. For cash AmountOrQuantity is money, for goods it is a quantity.
type PartnerWithdrawal struct {
	BaseModel
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User           `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Type             WithdrawalType  `gorm:"type:varchar(10);not null;index" json:"type"`
	AmountOrQuantity decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount_or_quantity"`
	AccountID        *uuid.UUID      `gorm:"type:uuid;index" json:"account_id,omitempty"`
	ShipmentID       *uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id,omitempty"`
	TransactionID    *uuid.UUID      `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Note             string          `gorm:"type:text" json:"note,omitempty"`
}
