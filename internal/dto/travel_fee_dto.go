package dto

import (
	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

// CreatePaymentDTO has no tag on Amount; the service rejects amounts <= 0.
type CreatePaymentDTO struct {
	Amount decimal.Decimal `json:"amount"`
	Note   null.String     `json:"note" validate:"omitempty,max=250"`
}

type TravelFeeMovementDTO struct {
	ID        uint64          `json:"id"`
	LeaveID   null.Uint64     `json:"leave_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      null.String     `json:"note"`
	CreatedBy null.Uint64     `json:"created_by"`
	CreatedAt string          `json:"created_at"`
}

type TravelFeeBalanceDTO struct {
	StudentID uint64                 `json:"student_id"`
	Balance   decimal.Decimal        `json:"balance"`
	Currency  string                 `json:"currency"`
	Movements []TravelFeeMovementDTO `json:"movements"`
}
