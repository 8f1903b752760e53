package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User types. Merchant accounts are payee-only.
const (
	UserTypeCommon   = "common"
	UserTypeMerchant = "merchant"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Document  string    `gorm:"uniqueIndex;not null" json:"document"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Type      string    `gorm:"not null;default:'common'" json:"type"`
	Wallet    *Wallet   `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CanTransfer reports whether this user may initiate transfers.
func (u *User) CanTransfer() bool {
	return u.Type == UserTypeCommon
}
