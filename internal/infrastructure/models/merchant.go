package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Merchant struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name               string    `gorm:"type:varchar(200);not null"`
	Email              string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	WebhookSecret      string    `gorm:"type:varchar(255);not null"`
	Active             bool      `gorm:"not null;default:true"`
	AllowLargePayments bool      `gorm:"not null;default:false"`
	Country            *string   `gorm:"type:varchar(2)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

type Customer struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID           uuid.UUID `gorm:"type:uuid;not null;index:idx_customers_merchant_email,unique"`
	Email                string    `gorm:"type:varchar(255);not null;index:idx_customers_merchant_email,unique"`
	Name                 *string   `gorm:"type:varchar(200)"`
	Phone                *string   `gorm:"type:varchar(20)"`
	Description          *string   `gorm:"type:varchar(500)"`
	Metadata             string    `gorm:"type:jsonb;default:'{}'"`
	DefaultPaymentMethod *string   `gorm:"type:varchar(100)"`
	Balance              int64     `gorm:"not null;default:0"`
	Delinquent           bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ApiKey struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Prefix      string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	KeyHash     string    `gorm:"type:varchar(255);not null"`
	Permissions string    `gorm:"type:varchar(255);not null;default:''"`
	Active      bool      `gorm:"not null;default:true"`
	ExpiresAt   *time.Time
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}
