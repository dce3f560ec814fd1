package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/infrastructure/models"
)

// PaymentEventRepository implements payment event data operations
type PaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create appends a payment event
func (r *PaymentEventRepository) Create(ctx context.Context, event *entities.PaymentEvent) error {
	meta := "{}"
	if len(event.Metadata) > 0 {
		b, err := json.Marshal(event.Metadata)
		if err != nil {
			return domainerrors.Persistence(err)
		}
		meta = string(b)
	}

	m := &models.PaymentEvent{
		ID:         event.ID,
		PaymentID:  event.PaymentID,
		EventType:  string(event.EventType),
		ActorID:    event.ActorID,
		FromStatus: event.FromStatus.Ptr(),
		ToStatus:   string(event.ToStatus),
		Metadata:   meta,
		CreatedAt:  event.CreatedAt,
	}

	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}

// ListByPayment returns the audit trail of a payment, oldest first
func (r *PaymentEventRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error) {
	var ms []models.PaymentEvent
	if err := GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&ms).Error; err != nil {
		return nil, domainerrors.Persistence(err)
	}

	events := make([]*entities.PaymentEvent, 0, len(ms))
	for _, m := range ms {
		event := &entities.PaymentEvent{
			ID:         m.ID,
			PaymentID:  m.PaymentID,
			EventType:  entities.PaymentEventType(m.EventType),
			ActorID:    m.ActorID,
			FromStatus: null.StringFromPtr(m.FromStatus),
			ToStatus:   entities.PaymentStatus(m.ToStatus),
			CreatedAt:  m.CreatedAt,
		}
		if m.Metadata != "" && m.Metadata != "{}" {
			_ = json.Unmarshal([]byte(m.Metadata), &event.Metadata)
		}
		events = append(events, event)
	}

	return events, nil
}
