// Package identity implements user registration and lookup for dealership
// accounts.
package identity

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/identity"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TxScope runs a function inside a database transaction with the identity
// repositories bound to it
type TxScope interface {
	Serializable(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories exposes the repositories bound to the open transaction
type TxRepositories interface {
	Users() identity.UserRepository
	Audit() shared.AuditRepository
}

// UserService handles user account operations
type UserService struct {
	userRepo identity.UserRepository
	txScope  TxScope
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, txScope TxScope) *UserService {
	return &UserService{
		userRepo: userRepo,
		txScope:  txScope,
	}
}

// Register creates a user account. The password is hashed before the
// transaction opens so the hash cost is not paid under a held connection.
// Username and email uniqueness are pre-checked inside the transaction, with
// the unique constraints as the backstop against concurrent registrations.
func (s *UserService) Register(ctx context.Context, dealershipID uuid.UUID, req RegisterUserRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "register",
		telemetry.WithAttribute(telemetry.SpanAttrDealershipID, dealershipID),
	)
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var created *identity.User

	err = s.txScope.Serializable(ctx, func(repos TxRepositories) error {
		taken, err := repos.Users().ExistsByUsername(ctx, dealershipID, req.Username)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrAlreadyExists
		}
		taken, err = repos.Users().ExistsByEmail(ctx, dealershipID, req.Email)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrAlreadyExists
		}

		user, err := identity.NewUser(dealershipID, req.Username, req.Email, string(hash), identity.UserRole(req.Role))
		if err != nil {
			return err
		}
		user.FirstName = req.FirstName
		user.LastName = req.LastName

		if err := repos.Users().Save(ctx, user); err != nil {
			return err
		}

		entry := shared.NewAuditLogEntry(dealershipID, nil,
			shared.AuditActionCreate, shared.AuditEntityUser, user.ID,
			map[string]string{
				"username": user.Username,
				"role":     string(user.Role),
			})
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		created = user
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, created.ID)
	logger.L(ctx).Info("User registered",
		zap.String("user_id", created.ID.String()),
		zap.String("username", created.Username),
	)
	return ToUserResponse(created), nil
}

// Get loads a single user, distinguishing a missing user from one owned by
// another dealership
func (s *UserService) Get(ctx context.Context, dealershipID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.BelongsTo(dealershipID) {
		return nil, shared.ErrTenantViolation
	}
	return ToUserResponse(user), nil
}
