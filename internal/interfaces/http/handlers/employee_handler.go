package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/response"
	"payportal.backend/pkg/utils"
)

type ReviewService interface {
	VerifyPayment(ctx context.Context, employeeID, paymentID uuid.UUID, input *entities.VerifyPaymentInput) (*entities.TransitionResult, error)
	SubmitPayment(ctx context.Context, employeeID, paymentID uuid.UUID) (*entities.TransitionResult, error)
	ListPendingPayments(ctx context.Context, pagination utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error)
	ListSubmittedPayments(ctx context.Context, pagination utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error)
	GetPaymentEvents(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error)
}

// EmployeeHandler serves the employee review endpoints
type EmployeeHandler struct {
	reviewUsecase ReviewService
}

func NewEmployeeHandler(reviewUsecase ReviewService) *EmployeeHandler {
	return &EmployeeHandler{reviewUsecase: reviewUsecase}
}

// ListPending returns payments awaiting verification or submission
// GET /api/employee/pending-payments
func (h *EmployeeHandler) ListPending(c *gin.Context) {
	payments, meta, err := h.reviewUsecase.ListPendingPayments(c.Request.Context(), paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments, "pagination": meta})
}

// ListSubmitted returns payments already handed to settlement
// GET /api/employee/submitted-payments
func (h *EmployeeHandler) ListSubmitted(c *gin.Context) {
	payments, meta, err := h.reviewUsecase.ListSubmittedPayments(c.Request.Context(), paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments, "pagination": meta})
}

// VerifySwift confirms the SWIFT code of a pending payment
// POST /api/employee/verify-swift/:id
func (h *EmployeeHandler) VerifySwift(c *gin.Context) {
	employeeID, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	paymentID, err := paymentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid request body"))
		return
	}

	result, err := h.reviewUsecase.VerifyPayment(c.Request.Context(), employeeID, paymentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// SubmitSwift sends a verified payment to settlement
// POST /api/employee/submit-swift/:id
func (h *EmployeeHandler) SubmitSwift(c *gin.Context) {
	employeeID, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	paymentID, err := paymentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.reviewUsecase.SubmitPayment(c.Request.Context(), employeeID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Events returns the audit trail of one payment
// GET /api/employee/payments/:id/events
func (h *EmployeeHandler) Events(c *gin.Context) {
	paymentID, err := paymentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.reviewUsecase.GetPaymentEvents(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}
