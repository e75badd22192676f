package dto

import (
	"time"

	"github.com/spec-kit/loan-service/internal/domain"
)

// SubmitLoanRequest payload.
type SubmitLoanRequest struct {
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose"`
}

// RejectLoanRequest payload.
type RejectLoanRequest struct {
	Reason domain.RejectionReason `json:"reason"`
	Notes  string                 `json:"notes,omitempty"`
}

// ApproveLoanRequest payload.
type ApproveLoanRequest struct {
	Notes string `json:"notes,omitempty"`
}

// LoanResponse is the public loan shape.
type LoanResponse struct {
	ID              string                  `json:"id"`
	UserID          string                  `json:"user_id"`
	Amount          float64                 `json:"amount"`
	Purpose         string                  `json:"purpose"`
	Status          domain.LoanStatus       `json:"status"`
	RejectionReason *domain.RejectionReason `json:"rejection_reason,omitempty"`
	RejectionLabel  string                  `json:"rejection_label,omitempty"`
	AdminNotes      *string                 `json:"admin_notes,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	ReviewedAt      *time.Time              `json:"reviewed_at,omitempty"`
	ReviewedBy      *string                 `json:"reviewed_by,omitempty"`
}
