package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentTypeDeposit = "deposit"
	PaymentTypeFinal   = "final"
)

// DepositPercentage is the share of the project total captured up front.
const DepositPercentage = 50

type Payment struct {
	gorm.Model
	IntakeFormID uint `gorm:"index"`
	ClientID     uint
	Amount       int64 // cents
	Type         string
	Status       string `gorm:"not null;default:'pending'"`

	StripePaymentIntentID string `gorm:"index"`
	PaidAt                *time.Time
}

// DepositAmount computes the deposit in cents for a quoted total.
func DepositAmount(totalCents int64) int64 {
	return totalCents * DepositPercentage / 100
}
