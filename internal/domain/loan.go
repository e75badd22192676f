package domain

import "time"

// LoanStatus enumerates lifecycle states for loan applications. A loan is
// mutated exactly once: pending -> approved or pending -> rejected.
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
)

// RejectionReason enumerates the closed set of rejection codes.
type RejectionReason string

const (
	ReasonInsufficientIncome      RejectionReason = "INSUFFICIENT_INCOME"
	ReasonPoorCreditHistory       RejectionReason = "POOR_CREDIT_HISTORY"
	ReasonIncompleteDocumentation RejectionReason = "INCOMPLETE_DOCUMENTATION"
	ReasonExceedsLimit            RejectionReason = "EXCEEDS_LIMIT"
	// ReasonAutoRejected is reserved for the auto-expiry sweep and must never
	// be accepted from a human reviewer.
	ReasonAutoRejected RejectionReason = "AUTO_REJECTED"
)

// ManualRejectionReasons lists the codes a reviewer may assign.
func ManualRejectionReasons() []RejectionReason {
	return []RejectionReason{
		ReasonInsufficientIncome,
		ReasonPoorCreditHistory,
		ReasonIncompleteDocumentation,
		ReasonExceedsLimit,
	}
}

// ValidManualReason reports whether r may be supplied by a reviewer.
func ValidManualReason(r RejectionReason) bool {
	for _, candidate := range ManualRejectionReasons() {
		if candidate == r {
			return true
		}
	}
	return false
}

// ReasonLabel returns the human-readable label for a rejection code.
func ReasonLabel(r RejectionReason) string {
	switch r {
	case ReasonInsufficientIncome:
		return "Insufficient Income"
	case ReasonPoorCreditHistory:
		return "Poor Credit History"
	case ReasonIncompleteDocumentation:
		return "Incomplete Documentation"
	case ReasonExceedsLimit:
		return "Exceeds Maximum Limit"
	case ReasonAutoRejected:
		return "Automatic Rejection (No response within 5 days)"
	default:
		return string(r)
	}
}

// Loan is the aggregate for loan applications.
type Loan struct {
	ID              string
	UserID          string
	Amount          float64
	Purpose         string
	Status          LoanStatus
	RejectionReason *RejectionReason
	AdminNotes      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ReviewedAt      *time.Time
	ReviewedBy      *string
}

// Pending reports whether the loan still awaits a terminal decision.
func (l *Loan) Pending() bool {
	return l != nil && l.Status == LoanStatusPending
}
