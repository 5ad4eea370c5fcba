package dto

import (
	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

type CreateLeaveDTO struct {
	StudentID uint64      `json:"student_id" validate:"omitempty,gt=0"`
	StartDate string      `json:"start_date" validate:"required,date_only"`
	EndDate   string      `json:"end_date" validate:"required,date_only"`
	Reason    null.String `json:"reason" validate:"omitempty,max=500"`
}

type LeaveResponseDTO struct {
	ID        uint64           `json:"id"`
	StudentID uint64           `json:"student_id"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Weeks     int              `json:"weeks"`
	Reason    null.String      `json:"reason"`
	Status    string           `json:"status"`
	TravelFee *decimal.Decimal `json:"travel_fee,omitempty"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}
