package repositories

import (
	"context"

	"github.com/google/uuid"
	"payportal.backend/internal/domain/entities"
)

// PaymentEventRepository is the append-only audit trail of payment
// transitions. Events are never updated or deleted.
type PaymentEventRepository interface {
	Create(ctx context.Context, event *entities.PaymentEvent) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error)
}
