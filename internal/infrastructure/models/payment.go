package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	Amount         int64      `gorm:"not null"`
	Currency       string     `gorm:"type:varchar(3);not null"`
	Status         string     `gorm:"type:varchar(30);not null;index"`
	PaymentMethod  string     `gorm:"type:varchar(30);not null"`
	Description    *string    `gorm:"type:varchar(500)"`
	Metadata       string     `gorm:"type:jsonb;default:'{}'"`
	CapturedAmount int64      `gorm:"not null;default:0"`
	RefundedAmount int64      `gorm:"not null;default:0"`
	RefundReason   *string    `gorm:"type:varchar(255)"`
	FailureCode    *string    `gorm:"type:varchar(50)"`
	FailureMessage *string    `gorm:"type:varchar(255)"`
	CryptoAddress  *string    `gorm:"type:varchar(255)"`
	CryptoKey      *string    `gorm:"type:text"`
	CapturedAt     *time.Time
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

type Event struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"type:varchar(50);not null;index"`
	Data       string    `gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time `gorm:"index"`
}

type BalanceTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	PaymentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"type:varchar(20);not null"`
	Amount      int64     `gorm:"not null"`
	Fee         int64     `gorm:"not null;default:0"`
	Net         int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Description string    `gorm:"type:varchar(255)"`
	AvailableOn time.Time `gorm:"not null;index"`
	CreatedAt   time.Time
}
