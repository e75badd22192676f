package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loan-service/internal/api/dto"
	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/service"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// AdminHandler manages reviewer endpoints.
type AdminHandler struct {
	service *service.LoanService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(loanService *service.LoanService) *AdminHandler {
	return &AdminHandler{service: loanService}
}

// PendingLoans GET /api/admin/loans/pending.
func (h *AdminHandler) PendingLoans(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	loans, err := h.service.PendingQueue(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponses(loans)})
}

// ApproveLoan PUT /api/admin/loans/:id/approve.
func (h *AdminHandler) ApproveLoan(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ApproveLoanRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	loan, err := h.service.Approve(c.Context(), user, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponse(loan)})
}

// RejectLoan PUT /api/admin/loans/:id/reject.
func (h *AdminHandler) RejectLoan(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RejectLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	loan, err := h.service.Reject(c.Context(), user, c.Params("id"), req.Reason, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loanResponse(loan)})
}

// RejectionReasons GET /api/admin/rejection-reasons.
func (h *AdminHandler) RejectionReasons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.RejectionReasons()})
}
