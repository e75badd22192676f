package domain

import "testing"

func TestValidManualReason(t *testing.T) {
	for _, reason := range ManualRejectionReasons() {
		if !ValidManualReason(reason) {
			t.Errorf("%s should be valid", reason)
		}
	}
	if ValidManualReason(ReasonAutoRejected) {
		t.Error("AUTO_REJECTED must not be assignable manually")
	}
	if ValidManualReason("BOGUS") {
		t.Error("unknown code accepted")
	}
}

func TestReasonLabels(t *testing.T) {
	cases := map[RejectionReason]string{
		ReasonInsufficientIncome:      "Insufficient Income",
		ReasonPoorCreditHistory:       "Poor Credit History",
		ReasonIncompleteDocumentation: "Incomplete Documentation",
		ReasonExceedsLimit:            "Exceeds Maximum Limit",
		ReasonAutoRejected:            "Automatic Rejection (No response within 5 days)",
	}
	for reason, want := range cases {
		if got := ReasonLabel(reason); got != want {
			t.Errorf("ReasonLabel(%s) = %q, want %q", reason, got, want)
		}
	}
	if got := ReasonLabel("CUSTOM"); got != "CUSTOM" {
		t.Errorf("unknown reason should echo the code, got %q", got)
	}
}

func TestLoanPending(t *testing.T) {
	loan := &Loan{Status: LoanStatusPending}
	if !loan.Pending() {
		t.Error("pending loan reported not pending")
	}
	loan.Status = LoanStatusApproved
	if loan.Pending() {
		t.Error("approved loan reported pending")
	}
	var nilLoan *Loan
	if nilLoan.Pending() {
		t.Error("nil loan reported pending")
	}
}
