package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxPurchase          TransactionType = "purchase"
	TxSale              TransactionType = "sale"
	TxBuyback           TransactionType = "buyback"
	TxWriteOff          TransactionType = "write_off"
	TxPartnerWithdrawal TransactionType = "partner_withdrawal"
	TxOtherExpense      TransactionType = "other_expense"
	TxOtherIncome       TransactionType = "other_income"
)

// SourceType names the entity a transaction was generated from
type SourceType string

const (
	SourceShipment   SourceType = "shipment"
	SourceSale       SourceType = "sale"
	SourceBuyback    SourceType = "buyback"
	SourceWriteOff   SourceType = "write_off"
	SourceWithdrawal SourceType = "withdrawal"
)

// Transaction is a ledger entry. Only the cancellation fields change after
// insert. Amount is signed: positive moves money into the account.
type Transaction struct {
	BaseModel
	AccountID   *uuid.UUID      `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Account     *Account        `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT" json:"account,omitempty"`
	Type        TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	SourceType  *SourceType     `gorm:"type:varchar(20)" json:"source_type,omitempty"`
	SourceID    *uuid.UUID      `gorm:"type:uuid;index" json:"source_id,omitempty"`
	Description string          `gorm:"type:text" json:"description"`

	IsCancelled bool       `gorm:"not null;default:false;index" json:"is_cancelled"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy string     `json:"cancelled_by,omitempty"`
}

// IsExpense reports whether t counts toward company expenses
func (t TransactionType) IsExpense() bool {
	return t == TxPurchase || t == TxWriteOff || t == TxOtherExpense
}

// IsRevenue reports whether t counts toward company revenue
func (t TransactionType) IsRevenue() bool {
	return t == TxSale || t == TxBuyback
}

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	switch t {
	case TxPurchase, TxSale, TxBuyback, TxWriteOff, TxPartnerWithdrawal, TxOtherExpense, TxOtherIncome:
		return true
	}
	return false
}
