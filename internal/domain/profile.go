package domain

import (
	"strings"
	"time"
)

// Profile holds the applicant details required before a loan can be submitted.
// 1:1 with User; optional until populated.
type Profile struct {
	ID               string
	UserID           string
	FirstName        string
	LastName         string
	Phone            string
	Address          string
	DateOfBirth      time.Time
	EmploymentStatus string
	AnnualIncome     float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Complete reports whether every required field is simultaneously present.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	for _, field := range []string{p.FirstName, p.LastName, p.Phone, p.Address, p.EmploymentStatus} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return !p.DateOfBirth.IsZero() && p.AnnualIncome >= 0
}
