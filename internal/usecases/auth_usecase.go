package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/domain/repositories"
	"payportal.backend/pkg/crypto"
	"payportal.backend/pkg/jwt"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/metrics"
	"payportal.backend/pkg/utils"
)

const invalidCredentialsMessage = "Invalid credentials"

// TokenRevoker records logged-out session token ids.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthUsecase handles registration, login and logout
type AuthUsecase struct {
	userRepo     repositories.UserRepository
	uow          repositories.UnitOfWork
	hasher       *crypto.Hasher
	fingerprints *crypto.Fingerprinter
	jwtService   *jwt.JWTService
	revoker      TokenRevoker
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewAuthUsecase creates a new auth usecase. revoker and m may be nil.
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	uow repositories.UnitOfWork,
	hasher *crypto.Hasher,
	fingerprints *crypto.Fingerprinter,
	jwtService *jwt.JWTService,
	revoker TokenRevoker,
	m *metrics.Metrics,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:     userRepo,
		uow:          uow,
		hasher:       hasher,
		fingerprints: fingerprints,
		jwtService:   jwtService,
		revoker:      revoker,
		metrics:      m,
		now:          time.Now,
	}
}

// Register creates a customer account
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.UserSummary, error) {
	normalizeRegistration(input)
	if err := validateRegistration(input); err != nil {
		u.metrics.AuthAttempt("register", "invalid")
		return nil, err
	}

	user, err := u.newUser(ctx, input.FullName, input.Username, input.Password, input.IDNumber, input.AccountNumber, entities.RoleCustomer)
	if err == nil {
		// the unique indexes still catch a concurrent registration
		err = u.userRepo.Create(ctx, user)
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			u.metrics.AuthAttempt("register", "conflict")
		}
		return nil, err
	}

	u.metrics.AuthAttempt("register", "success")
	logger.Info(ctx, "User registered", zap.String("user_id", user.ID.String()))
	return user.Summary(), nil
}

// newUser checks uniqueness and hashes the secret fields.
func (u *AuthUsecase) newUser(ctx context.Context, fullName, username, password, idNumber, accountNumber string, role entities.Role) (*entities.User, error) {
	idFp := u.fingerprints.Fingerprint(crypto.ScopeIDNumber, idNumber)
	accFp := u.fingerprints.Fingerprint(crypto.ScopeAccountNumber, accountNumber)

	taken, err := u.userRepo.Conflicts(ctx, username, idFp, accFp)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		logger.Info(ctx, "Registration rejected", zap.Strings("taken", taken))
		return nil, domainerrors.Conflict("An account with these details already exists")
	}

	passwordHash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	idHash, err := u.hasher.Hash(idNumber)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	accountHash, err := u.hasher.Hash(accountNumber)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	now := u.now().UTC()
	return &entities.User{
		ID:                       utils.GenerateUUIDv7(),
		FullName:                 fullName,
		Username:                 username,
		PasswordHash:             passwordHash,
		IDNumberHash:             idHash,
		IDNumberFingerprint:      idFp,
		AccountNumberHash:        accountHash,
		AccountNumberFingerprint: accFp,
		Role:                     role,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

// Authenticate checks username, password and account number. Every failure
// returns the same error and costs the same bcrypt work.
func (u *AuthUsecase) Authenticate(ctx context.Context, input *entities.LoginInput) (*entities.User, error) {
	username := strings.TrimSpace(input.Username)
	accountNumber := strings.TrimSpace(input.AccountNumber)

	if !usernamePattern.MatchString(username) || !accountNumberPattern.MatchString(accountNumber) || input.Password == "" {
		u.hasher.CompareDummy(input.Password)
		u.hasher.CompareDummy(accountNumber)
		return nil, domainerrors.Authentication(invalidCredentialsMessage)
	}

	user, err := u.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			u.hasher.CompareDummy(input.Password)
			u.hasher.CompareDummy(accountNumber)
			return nil, domainerrors.Authentication(invalidCredentialsMessage)
		}
		return nil, err
	}

	passwordOK := u.hasher.Compare(input.Password, user.PasswordHash)
	accountOK := u.hasher.Compare(accountNumber, user.AccountNumberHash)
	if !passwordOK || !accountOK {
		return nil, domainerrors.Authentication(invalidCredentialsMessage)
	}
	return user, nil
}

// Login authenticates and issues a session token
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.Session, error) {
	user, err := u.Authenticate(ctx, input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAuthentication) {
			u.metrics.AuthAttempt("login", "failure")
		}
		return nil, err
	}

	issued, err := u.jwtService.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	u.metrics.AuthAttempt("login", "success")
	logger.Info(ctx, "User logged in", zap.String("user_id", user.ID.String()))
	return &entities.Session{
		Token:     issued.Token,
		TokenID:   issued.ID,
		ExpiresAt: issued.ExpiresAt,
		User:      user.Summary(),
	}, nil
}

// Logout revokes the token id until the token would have expired anyway.
// Without a revoker logout is purely client side.
func (u *AuthUsecase) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if u.revoker == nil || tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(u.now())
	if err := u.revoker.Revoke(ctx, tokenID, ttl); err != nil {
		return domainerrors.InternalError(fmt.Errorf("revoke session: %w", err))
	}
	return nil
}

// GetUserByID returns the public view of a user
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.UserSummary, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("User not found")
		}
		return nil, err
	}
	return user.Summary(), nil
}

// ProvisionResult reports what a provisioning run did.
type ProvisionResult struct {
	Created []string
	Skipped []string
}

// ProvisionEmployees creates employee accounts whose username is not yet
// taken. The whole batch is validated first and written in one transaction.
func (u *AuthUsecase) ProvisionEmployees(ctx context.Context, inputs []*entities.ProvisionInput) (*ProvisionResult, error) {
	var errs fieldErrors
	for i, in := range inputs {
		reg := &entities.RegisterInput{
			FullName:      in.FullName,
			IDNumber:      in.IDNumber,
			AccountNumber: in.AccountNumber,
			Username:      in.Username,
			Password:      in.Password,
		}
		normalizeRegistration(reg)
		if err := validateRegistration(reg); err != nil {
			if appErr, ok := domainerrors.As(err); ok {
				for _, f := range appErr.Fields {
					errs.add(fmt.Sprintf("employees[%d].%s", i, f.Field), f.Message)
				}
			}
			continue
		}
		in.FullName, in.IDNumber, in.AccountNumber, in.Username = reg.FullName, reg.IDNumber, reg.AccountNumber, reg.Username
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	result := &ProvisionResult{}
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		for _, in := range inputs {
			_, err := u.userRepo.GetByUsername(txCtx, in.Username)
			if err == nil {
				result.Skipped = append(result.Skipped, in.Username)
				continue
			}
			if !errors.Is(err, domainerrors.ErrNotFound) {
				return err
			}

			user, err := u.newUser(txCtx, in.FullName, in.Username, in.Password, in.IDNumber, in.AccountNumber, entities.RoleEmployee)
			if err != nil {
				return err
			}
			if err := u.userRepo.Create(txCtx, user); err != nil {
				return err
			}
			result.Created = append(result.Created, in.Username)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Employees provisioned",
		zap.Int("created", len(result.Created)), zap.Int("skipped", len(result.Skipped)))
	return result, nil
}
