package events

import (
	"time"

	"github.com/spec-kit/loan-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChallengeIssued EventType = "challenge_issued"
	EventLoanSubmitted   EventType = "loan_submitted"
	EventLoanDecided     EventType = "loan_decided"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ChallengeIssuedPayload carries everything the notifier needs to deliver a
// verification code.
type ChallengeIssuedPayload struct {
	ChallengeID string               `json:"challenge_id"`
	Kind        domain.ChallengeKind `json:"kind"`
	Address     string               `json:"address"`
	DisplayName string               `json:"display_name"`
	Code        string               `json:"code"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// LoanSubmittedPayload payload.
type LoanSubmittedPayload struct {
	LoanID  string  `json:"loan_id"`
	UserID  string  `json:"user_id"`
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose"`
}

// LoanDecidedPayload carries the decision details for the owner notification.
type LoanDecidedPayload struct {
	LoanID      string                  `json:"loan_id"`
	Address     string                  `json:"address"`
	DisplayName string                  `json:"display_name"`
	Decision    domain.LoanStatus       `json:"decision"`
	Reason      *domain.RejectionReason `json:"reason,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	Amount      float64                 `json:"amount"`
	Purpose     string                  `json:"purpose"`
	SubmittedAt time.Time               `json:"submitted_at"`
	ReviewedAt  *time.Time              `json:"reviewed_at,omitempty"`
}
