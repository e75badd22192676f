package domain

import (
	"testing"
	"time"
)

func completeProfile() *Profile {
	return &Profile{
		FirstName:        "Alice",
		LastName:         "Smith",
		Phone:            "+15550100",
		Address:          "1 Main St",
		DateOfBirth:      time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: "employed",
		AnnualIncome:     52000,
	}
}

func TestProfileComplete(t *testing.T) {
	if !completeProfile().Complete() {
		t.Error("fully populated profile reported incomplete")
	}

	var nilProfile *Profile
	if nilProfile.Complete() {
		t.Error("nil profile reported complete")
	}

	blankField := completeProfile()
	blankField.Phone = "   "
	if blankField.Complete() {
		t.Error("blank phone should be incomplete")
	}

	noDOB := completeProfile()
	noDOB.DateOfBirth = time.Time{}
	if noDOB.Complete() {
		t.Error("zero dob should be incomplete")
	}

	negativeIncome := completeProfile()
	negativeIncome.AnnualIncome = -1
	if negativeIncome.Complete() {
		t.Error("negative income should be incomplete")
	}

	zeroIncome := completeProfile()
	zeroIncome.AnnualIncome = 0
	if !zeroIncome.Complete() {
		t.Error("zero income is allowed")
	}
}
