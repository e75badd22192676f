package dto

import "time"

// SaveProfileRequest payload. Every field is required.
type SaveProfileRequest struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Phone            string  `json:"phone"`
	Address          string  `json:"address"`
	DateOfBirth      string  `json:"date_of_birth"`
	EmploymentStatus string  `json:"employment_status"`
	AnnualIncome     float64 `json:"annual_income"`
}

// ProfileResponse is the public profile shape.
type ProfileResponse struct {
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	DateOfBirth      string    `json:"date_of_birth"`
	EmploymentStatus string    `json:"employment_status"`
	AnnualIncome     float64   `json:"annual_income"`
	UpdatedAt        time.Time `json:"updated_at"`
}
