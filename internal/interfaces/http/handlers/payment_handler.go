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

type PaymentService interface {
	CreatePayment(ctx context.Context, customerID uuid.UUID, input *entities.CreatePaymentInput) (*entities.Payment, error)
	ListCustomerPayments(ctx context.Context, customerID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Payment, *utils.PaginationMeta, error)
}

// PaymentHandler serves the customer payment endpoints
type PaymentHandler struct {
	paymentUsecase PaymentService
}

func NewPaymentHandler(paymentUsecase PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// ListPayments returns the caller's own payments, newest first
// GET /api/pastPayments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	customerID, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	payments, meta, err := h.paymentUsecase.ListCustomerPayments(c.Request.Context(), customerID, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"payments":   payments,
		"pagination": meta,
	})
}

// CreatePayment records a pending payment for the caller
// POST /api/createPayment
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	customerID, err := actorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid request body"))
		return
	}

	payment, err := h.paymentUsecase.CreatePayment(c.Request.Context(), customerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}
