package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/domain/repositories"
	"payportal.backend/pkg/crypto"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/metrics"
	"payportal.backend/pkg/utils"
)

const (
	msgPaymentNotFound    = "Payment not found"
	msgPaymentNotPending  = "Payment is not in pending status"
	msgPaymentNotVerified = "Payment must be verified before it can be sent to SWIFT"
)

// SettlementGateway mints settlement references and announces submissions.
type SettlementGateway interface {
	NewTransactionID(ctx context.Context) (string, error)
	Announce(ctx context.Context, event entities.SettlementEvent) error
}

// PaymentUsecase owns the payment lifecycle: pending, verified, submitted.
type PaymentUsecase struct {
	paymentRepo repositories.PaymentRepository
	eventRepo   repositories.PaymentEventRepository
	uow         repositories.UnitOfWork
	hasher      *crypto.Hasher
	settlement  SettlementGateway
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	eventRepo repositories.PaymentEventRepository,
	uow repositories.UnitOfWork,
	hasher *crypto.Hasher,
	settlement SettlementGateway,
	m *metrics.Metrics,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		uow:         uow,
		hasher:      hasher,
		settlement:  settlement,
		metrics:     m,
		now:         time.Now,
	}
}

// CreatePayment records a new pending payment for customerID
func (u *PaymentUsecase) CreatePayment(ctx context.Context, customerID uuid.UUID, input *entities.CreatePaymentInput) (*entities.Payment, error) {
	fields, err := validatePayment(input)
	if err != nil {
		return nil, err
	}

	accountHash, err := u.hasher.Hash(fields.accountNumber)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	now := u.now().UTC()
	payment := &entities.Payment{
		ID:                utils.GenerateUUIDv7(),
		CustomerID:        customerID,
		Amount:            fields.amount,
		Currency:          fields.currency,
		ServiceProvider:   fields.serviceProvider,
		SwiftCode:         fields.swiftCode,
		AccountHolderName: fields.accountHolderName,
		AccountNumberHash: accountHash,
		BranchCode:        fields.branchCode,
		AccountType:       fields.accountType,
		Status:            entities.PaymentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}
		return u.eventRepo.Create(txCtx, &entities.PaymentEvent{
			ID:        utils.GenerateUUIDv7(),
			PaymentID: payment.ID,
			EventType: entities.PaymentEventTypeCreated,
			ActorID:   customerID,
			ToStatus:  entities.PaymentStatusPending,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	u.metrics.PaymentTransition(string(entities.PaymentStatusPending))
	logger.Info(ctx, "Payment created", zap.String("payment_id", payment.ID.String()))
	return payment, nil
}

// VerifyPayment confirms the SWIFT code typed by an employee against the
// stored one and moves the payment from pending to verified.
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, employeeID, paymentID uuid.UUID, input *entities.VerifyPaymentInput) (*entities.TransitionResult, error) {
	payment, err := u.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entities.PaymentStatusPending {
		return nil, domainerrors.InvalidState(msgPaymentNotPending)
	}

	code := strings.ToUpper(strings.TrimSpace(input.SwiftCode))
	if !swiftCodePattern.MatchString(code) {
		return nil, domainerrors.Validation([]domainerrors.FieldError{{Field: "swiftCode", Message: "Invalid SWIFT code format"}})
	}
	if !strings.EqualFold(code, payment.SwiftCode) {
		return nil, domainerrors.Validation([]domainerrors.FieldError{{Field: "swiftCode", Message: "SWIFT code does not match the payment"}})
	}

	now := u.now().UTC()
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.paymentRepo.MarkVerified(txCtx, paymentID, repositories.VerifyTransition{
			VerifiedSwiftCode: code,
			VerifiedBy:        employeeID,
			VerifiedAt:        now,
		}); err != nil {
			return transitionError(err, msgPaymentNotPending)
		}
		return u.eventRepo.Create(txCtx, &entities.PaymentEvent{
			ID:         utils.GenerateUUIDv7(),
			PaymentID:  paymentID,
			EventType:  entities.PaymentEventTypeVerified,
			ActorID:    employeeID,
			FromStatus: null.StringFrom(string(entities.PaymentStatusPending)),
			ToStatus:   entities.PaymentStatusVerified,
			Metadata:   map[string]any{"swiftCode": code},
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	payment.Status = entities.PaymentStatusVerified
	payment.VerifiedSwiftCode = null.StringFrom(code)
	payment.VerifiedAt = null.TimeFrom(now)
	payment.VerifiedBy = null.StringFrom(employeeID.String())
	payment.UpdatedAt = now

	u.metrics.PaymentTransition(string(entities.PaymentStatusVerified))
	logger.Info(ctx, "Payment verified",
		zap.String("payment_id", paymentID.String()), zap.String("employee_id", employeeID.String()))
	return &entities.TransitionResult{Message: "SWIFT code verified successfully", Payment: payment}, nil
}

// SubmitPayment releases a verified payment to the settlement network.
func (u *PaymentUsecase) SubmitPayment(ctx context.Context, employeeID, paymentID uuid.UUID) (*entities.TransitionResult, error) {
	payment, err := u.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entities.PaymentStatusVerified {
		return nil, domainerrors.InvalidState(msgPaymentNotVerified)
	}

	txID, err := u.settlement.NewTransactionID(ctx)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	now := u.now().UTC()
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.paymentRepo.MarkSubmitted(txCtx, paymentID, repositories.SubmitTransition{
			SubmittedBy:             employeeID,
			SubmittedAt:             now,
			SettlementTransactionID: txID,
		}); err != nil {
			return transitionError(err, msgPaymentNotVerified)
		}
		return u.eventRepo.Create(txCtx, &entities.PaymentEvent{
			ID:         utils.GenerateUUIDv7(),
			PaymentID:  paymentID,
			EventType:  entities.PaymentEventTypeSubmitted,
			ActorID:    employeeID,
			FromStatus: null.StringFrom(string(entities.PaymentStatusVerified)),
			ToStatus:   entities.PaymentStatusSubmitted,
			Metadata:   map[string]any{"settlementTransactionId": txID},
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	payment.Status = entities.PaymentStatusSubmitted
	payment.SubmittedAt = null.TimeFrom(now)
	payment.SubmittedBy = null.StringFrom(employeeID.String())
	payment.SettlementTransactionID = null.StringFrom(txID)
	payment.UpdatedAt = now

	u.metrics.PaymentTransition(string(entities.PaymentStatusSubmitted))
	logger.Info(ctx, "Payment submitted",
		zap.String("payment_id", paymentID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.String("settlement_transaction_id", txID))

	// the payment is already committed; a lost announcement is only logged
	_ = u.settlement.Announce(ctx, entities.SettlementEvent{
		PaymentID:               payment.ID,
		SettlementTransactionID: txID,
		Amount:                  payment.Amount,
		Currency:                payment.Currency,
		SwiftCode:               payment.SwiftCode,
		SubmittedBy:             employeeID,
		SubmittedAt:             now,
	})

	return &entities.TransitionResult{Message: "Payment submitted to SWIFT successfully", Payment: payment}, nil
}

// ListCustomerPayments lists the caller's own payments, newest first
func (u *PaymentUsecase) ListCustomerPayments(ctx context.Context, customerID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Payment, *utils.PaginationMeta, error) {
	payments, total, err := u.paymentRepo.ListByCustomer(ctx, customerID, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, nil, err
	}
	meta := utils.CalculateMeta(total, pagination.Page, pagination.Limit)
	return payments, &meta, nil
}

// ListPendingPayments lists payments awaiting employee action (pending or verified)
func (u *PaymentUsecase) ListPendingPayments(ctx context.Context, pagination utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error) {
	return u.listWithCustomer(ctx, []entities.PaymentStatus{entities.PaymentStatusPending, entities.PaymentStatusVerified}, pagination)
}

// ListSubmittedPayments lists payments already released to settlement
func (u *PaymentUsecase) ListSubmittedPayments(ctx context.Context, pagination utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error) {
	return u.listWithCustomer(ctx, []entities.PaymentStatus{entities.PaymentStatusSubmitted}, pagination)
}

func (u *PaymentUsecase) listWithCustomer(ctx context.Context, statuses []entities.PaymentStatus, pagination utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error) {
	payments, total, err := u.paymentRepo.ListWithCustomer(ctx, statuses, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, nil, err
	}
	meta := utils.CalculateMeta(total, pagination.Page, pagination.Limit)
	return payments, &meta, nil
}

// GetPaymentEvents returns the audit trail of a payment
func (u *PaymentUsecase) GetPaymentEvents(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error) {
	if _, err := u.load(ctx, paymentID); err != nil {
		return nil, err
	}
	return u.eventRepo.ListByPayment(ctx, paymentID)
}

func (u *PaymentUsecase) load(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	payment, err := u.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(msgPaymentNotFound)
		}
		return nil, err
	}
	return payment, nil
}

// transitionError maps a lost compare-and-swap to a client-facing error.
func transitionError(err error, invalidStateMessage string) error {
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound(msgPaymentNotFound)
	case errors.Is(err, domainerrors.ErrInvalidState):
		return domainerrors.InvalidState(invalidStateMessage)
	}
	return err
}
