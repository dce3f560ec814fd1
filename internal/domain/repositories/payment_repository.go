package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"payportal.backend/internal/domain/entities"
)

// VerifyTransition carries the fields stamped when a payment is verified.
type VerifyTransition struct {
	VerifiedSwiftCode string
	VerifiedBy        uuid.UUID
	VerifiedAt        time.Time
}

// SubmitTransition carries the fields stamped when a payment is submitted.
type SubmitTransition struct {
	SubmittedBy             uuid.UUID
	SubmittedAt             time.Time
	SettlementTransactionID string
}

// PaymentRepository defines payment data operations.
// Mark* updates are conditional on the current status and report
// ErrInvalidState when the row was not in the expected state.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entities.Payment, int64, error)
	ListWithCustomer(ctx context.Context, statuses []entities.PaymentStatus, limit, offset int) ([]*entities.PaymentWithCustomer, int64, error)
	MarkVerified(ctx context.Context, id uuid.UUID, t VerifyTransition) error
	MarkSubmitted(ctx context.Context, id uuid.UUID, t SubmitTransition) error
	CountByStatus(ctx context.Context) ([]entities.StatusCount, error)
}
