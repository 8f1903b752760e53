package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction statuses. Rows are terminal: a failed attempt writes its own
// failed row instead of mutating an earlier one.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable ledger entry for one transfer attempt. The payee
// wallet reference is nullable because a failed attempt may not have resolved
// it.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PayerWalletID *uuid.UUID      `gorm:"type:uuid;index" json:"payer_wallet_id"`
	PayeeWalletID *uuid.UUID      `gorm:"type:uuid;index" json:"payee_wallet_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status        string          `gorm:"not null" json:"status"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
