package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountMinor             int64      `gorm:"not null"`
	Currency                string     `gorm:"type:varchar(3);not null"`
	ServiceProvider         string     `gorm:"type:varchar(50);not null"`
	SwiftCode               string     `gorm:"type:varchar(11);not null"`
	AccountHolderName       string     `gorm:"type:varchar(50);not null"`
	AccountNumberHash       string     `gorm:"type:varchar(255);not null"`
	BranchCode              string     `gorm:"type:varchar(6);not null"`
	AccountType             string     `gorm:"type:varchar(16);not null"`
	Status                  string     `gorm:"type:varchar(16);not null;index"`
	VerifiedSwiftCode       *string    `gorm:"type:varchar(11)"`
	VerifiedAt              *time.Time `gorm:"type:timestamp"`
	VerifiedBy              *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt             *time.Time `gorm:"type:timestamp"`
	SubmittedBy             *uuid.UUID `gorm:"type:uuid"`
	SettlementTransactionID *string    `gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt               time.Time  `gorm:"index"`
	UpdatedAt               time.Time
}

// PaymentWithCustomer is the scan target for the employee join.
type PaymentWithCustomer struct {
	Payment
	CustomerName     string
	CustomerUsername string
}

type PaymentEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType  string    `gorm:"type:varchar(32);not null;index"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null"`
	FromStatus *string   `gorm:"type:varchar(16)"`
	ToStatus   string    `gorm:"type:varchar(16);not null"`
	Metadata   string    `gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time
}

// All lists the models managed by auto-migration.
func All() []interface{} {
	return []interface{}{&User{}, &Payment{}, &PaymentEvent{}}
}
