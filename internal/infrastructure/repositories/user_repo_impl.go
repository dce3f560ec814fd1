package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/infrastructure/models"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	m := &models.User{
		ID:                       user.ID,
		FullName:                 user.FullName,
		Username:                 user.Username,
		PasswordHash:             user.PasswordHash,
		IDNumberHash:             user.IDNumberHash,
		IDNumberFingerprint:      user.IDNumberFingerprint,
		AccountNumberHash:        user.AccountNumberHash,
		AccountNumberFingerprint: user.AccountNumberFingerprint,
		Role:                     string(user.Role),
		CreatedAt:                user.CreatedAt,
		UpdatedAt:                user.UpdatedAt,
	}

	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("An account with these details already exists")
		}
		return domainerrors.Persistence(err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername gets a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, domainerrors.Persistence(err)
	}
	return toUserEntity(&m), nil
}

// Conflicts returns which of username, id number and account number are already registered.
func (r *UserRepository) Conflicts(ctx context.Context, username, idNumberFingerprint, accountNumberFingerprint string) ([]string, error) {
	var rows []models.User
	err := GetDB(ctx, r.db).
		Select("username", "id_number_fingerprint", "account_number_fingerprint").
		Where("username = ? OR id_number_fingerprint = ? OR account_number_fingerprint = ?",
			username, idNumberFingerprint, accountNumberFingerprint).
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.Persistence(err)
	}

	var taken []string
	var seenUser, seenID, seenAccount bool
	for _, row := range rows {
		if !seenUser && row.Username == username {
			seenUser = true
			taken = append(taken, "username")
		}
		if !seenID && row.IDNumberFingerprint == idNumberFingerprint {
			seenID = true
			taken = append(taken, "idNumber")
		}
		if !seenAccount && row.AccountNumberFingerprint == accountNumberFingerprint {
			seenAccount = true
			taken = append(taken, "accountNumber")
		}
	}
	return taken, nil
}

func toUserEntity(m *models.User) *entities.User {
	role, ok := entities.ParseRole(m.Role)
	if !ok {
		// unknown stored roles get no privileges
		role = entities.Role(m.Role)
	}
	return &entities.User{
		ID:                       m.ID,
		FullName:                 m.FullName,
		Username:                 m.Username,
		PasswordHash:             m.PasswordHash,
		IDNumberHash:             m.IDNumberHash,
		IDNumberFingerprint:      m.IDNumberFingerprint,
		AccountNumberHash:        m.AccountNumberHash,
		AccountNumberFingerprint: m.AccountNumberFingerprint,
		Role:                     role,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}
