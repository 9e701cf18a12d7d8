package model

import "github.com/shopspring/decimal"

type AccountType string

const (
	AccountCash  AccountType = "cash"
	AccountBank  AccountType = "bank"
	AccountOther AccountType = "other"
)

// Account holds funds. Balance is a cache of the signed sum of the
// non-cancelled transactions posted to it.
type Account struct {
	BaseModel
	Name    string          `gorm:"type:varchar(120);not null" json:"name"`
	Type    AccountType     `gorm:"type:varchar(10);not null" json:"type"`
	Balance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	Note    string          `gorm:"type:text" json:"note,omitempty"`
}
