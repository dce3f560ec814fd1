package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	domainRepos "payportal.backend/internal/domain/repositories"
	"payportal.backend/internal/infrastructure/models"
)

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	m := toPaymentModel(payment)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("Payment already exists")
		}
		return domainerrors.Persistence(err)
	}
	return nil
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	var m models.Payment
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, domainerrors.Persistence(err)
	}
	return toPaymentEntity(&m), nil
}

// ListByCustomer lists a customer's payments, newest first
func (r *PaymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entities.Payment, int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&models.Payment{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, domainerrors.Persistence(err)
	}

	var ms []models.Payment
	err := GetDB(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ms).Error
	if err != nil {
		return nil, 0, domainerrors.Persistence(err)
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, toPaymentEntity(&ms[i]))
	}
	return payments, total, nil
}

// ListWithCustomer lists payments in the given statuses joined with the owner's
// identity, oldest first so the review queue is worked in arrival order.
func (r *PaymentRepository) ListWithCustomer(ctx context.Context, statuses []entities.PaymentStatus, limit, offset int) ([]*entities.PaymentWithCustomer, int64, error) {
	if len(statuses) == 0 {
		return []*entities.PaymentWithCustomer{}, 0, nil
	}
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	base := func() *gorm.DB {
		return GetDB(ctx, r.db).
			Table("payments").
			Joins("JOIN users ON users.id = payments.customer_id").
			Where("payments.status IN ?", values)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, domainerrors.Persistence(err)
	}

	var rows []models.PaymentWithCustomer
	err := base().
		Select("payments.*, users.full_name AS customer_name, users.username AS customer_username").
		Order("payments.created_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, domainerrors.Persistence(err)
	}

	out := make([]*entities.PaymentWithCustomer, 0, len(rows))
	for i := range rows {
		out = append(out, &entities.PaymentWithCustomer{
			Payment:          *toPaymentEntity(&rows[i].Payment),
			CustomerName:     rows[i].CustomerName,
			CustomerUsername: rows[i].CustomerUsername,
		})
	}
	return out, total, nil
}

// MarkVerified moves a pending payment to verified
func (r *PaymentRepository) MarkVerified(ctx context.Context, id uuid.UUID, t domainRepos.VerifyTransition) error {
	return r.transition(ctx, id, entities.PaymentStatusPending, map[string]interface{}{
		"status":              string(entities.PaymentStatusVerified),
		"verified_swift_code": t.VerifiedSwiftCode,
		"verified_at":         t.VerifiedAt,
		"verified_by":         t.VerifiedBy,
		"updated_at":          t.VerifiedAt,
	})
}

// MarkSubmitted moves a verified payment to submitted
func (r *PaymentRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, t domainRepos.SubmitTransition) error {
	return r.transition(ctx, id, entities.PaymentStatusVerified, map[string]interface{}{
		"status":                    string(entities.PaymentStatusSubmitted),
		"submitted_at":              t.SubmittedAt,
		"submitted_by":              t.SubmittedBy,
		"settlement_transaction_id": t.SettlementTransactionID,
		"updated_at":                t.SubmittedAt,
	})
}

// transition applies updates only while the row is still in from.
func (r *PaymentRepository) transition(ctx context.Context, id uuid.UUID, from entities.PaymentStatus, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.Conflict("Settlement transaction id already in use")
		}
		return domainerrors.Persistence(result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := GetDB(ctx, r.db).Model(&models.Payment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return domainerrors.Persistence(err)
	}
	if count == 0 {
		return domainerrors.ErrNotFound
	}
	return domainerrors.ErrInvalidState
}

// CountByStatus returns the number of payments in each status
func (r *PaymentRepository) CountByStatus(ctx context.Context) ([]entities.StatusCount, error) {
	var rows []statusCountRow
	err := GetDB(ctx, r.db).
		Model(&models.Payment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, domainerrors.Persistence(err)
	}

	out := make([]entities.StatusCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.StatusCount{Status: entities.PaymentStatus(row.Status), Count: row.Count})
	}
	return out, nil
}

type statusCountRow struct {
	Status string
	Count  int64
}

func toPaymentModel(p *entities.Payment) *models.Payment {
	return &models.Payment{
		ID:                      p.ID,
		CustomerID:              p.CustomerID,
		AmountMinor:             int64(p.Amount),
		Currency:                string(p.Currency),
		ServiceProvider:         p.ServiceProvider,
		SwiftCode:               p.SwiftCode,
		AccountHolderName:       p.AccountHolderName,
		AccountNumberHash:       p.AccountNumberHash,
		BranchCode:              p.BranchCode,
		AccountType:             string(p.AccountType),
		Status:                  string(p.Status),
		VerifiedSwiftCode:       p.VerifiedSwiftCode.Ptr(),
		VerifiedAt:              p.VerifiedAt.Ptr(),
		VerifiedBy:              uuidPtr(p.VerifiedBy),
		SubmittedAt:             p.SubmittedAt.Ptr(),
		SubmittedBy:             uuidPtr(p.SubmittedBy),
		SettlementTransactionID: p.SettlementTransactionID.Ptr(),
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

func toPaymentEntity(m *models.Payment) *entities.Payment {
	return &entities.Payment{
		ID:                      m.ID,
		CustomerID:              m.CustomerID,
		Amount:                  entities.Amount(m.AmountMinor),
		Currency:                entities.Currency(m.Currency),
		ServiceProvider:         m.ServiceProvider,
		SwiftCode:               m.SwiftCode,
		AccountHolderName:       m.AccountHolderName,
		AccountNumberHash:       m.AccountNumberHash,
		BranchCode:              m.BranchCode,
		AccountType:             entities.AccountType(m.AccountType),
		Status:                  entities.PaymentStatus(m.Status),
		VerifiedSwiftCode:       null.StringFromPtr(m.VerifiedSwiftCode),
		VerifiedAt:              null.TimeFromPtr(m.VerifiedAt),
		VerifiedBy:              uuidString(m.VerifiedBy),
		SubmittedAt:             null.TimeFromPtr(m.SubmittedAt),
		SubmittedBy:             uuidString(m.SubmittedBy),
		SettlementTransactionID: null.StringFromPtr(m.SettlementTransactionID),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

func uuidPtr(s null.String) *uuid.UUID {
	if !s.Valid {
		return nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &id
}

func uuidString(id *uuid.UUID) null.String {
	if id == nil {
		return null.String{}
	}
	return null.StringFrom(id.String())
}
