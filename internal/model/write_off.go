package model

import "github.com/google/uuid"

// WriteOff removes spoiled or lost quantity from a batch
type WriteOff struct {
	BaseModel
	BatchID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"batch_id"`
	Batch         *Batch     `gorm:"foreignKey:BatchID;constraint:OnDelete:RESTRICT" json:"batch,omitempty"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	Reason        string     `gorm:"type:text" json:"reason"`
	TransactionID *uuid.UUID `gorm:"type:uuid" json:"transaction_id,omitempty"`
}
