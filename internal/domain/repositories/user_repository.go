package repositories

import (
	"context"

	"github.com/google/uuid"
	"payportal.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	// Conflicts returns the names of the unique fields already taken.
	Conflicts(ctx context.Context, username, idNumberFingerprint, accountNumberFingerprint string) ([]string, error)
}
