package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loan-service/internal/api/dto"
	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/service"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// LoansHandler manages applicant loan endpoints.
type LoansHandler struct {
	service *service.LoanService
}

// NewLoansHandler constructs handler.
func NewLoansHandler(loanService *service.LoanService) *LoansHandler {
	return &LoansHandler{service: loanService}
}

// Submit POST /api/loans.
func (h *LoansHandler) Submit(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	loan, err := h.service.Submit(c.Context(), user, req.Amount, req.Purpose)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": loanResponse(loan)})
}

// List GET /api/loans.
func (h *LoansHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	loans, err := h.service.List(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponses(loans)})
}

// Get GET /api/loans/:id.
func (h *LoansHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	loan, err := h.service.Get(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponse(loan)})
}

func loanResponses(loans []domain.Loan) []dto.LoanResponse {
	items := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		items = append(items, loanResponse(&loans[i]))
	}
	return items
}

func loanResponse(loan *domain.Loan) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:              loan.ID,
		UserID:          loan.UserID,
		Amount:          loan.Amount,
		Purpose:         loan.Purpose,
		Status:          loan.Status,
		RejectionReason: loan.RejectionReason,
		AdminNotes:      loan.AdminNotes,
		CreatedAt:       loan.CreatedAt,
		UpdatedAt:       loan.UpdatedAt,
		ReviewedAt:      loan.ReviewedAt,
		ReviewedBy:      loan.ReviewedBy,
	}
	if loan.RejectionReason != nil {
		resp.RejectionLabel = domain.ReasonLabel(*loan.RejectionReason)
	}
	return resp
}
