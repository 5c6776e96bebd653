// userservice.go
package userservice

import (
	"context"

	"github.com/haguru/llmvault/internal/apperrors"
	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"
	"github.com/haguru/llmvault/pkg/helper"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Logger   interfaces.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, logger interfaces.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		Logger:   logger,
	}
}

// UpsertUser creates the user or overwrites its profile fields. Empty
// profile fields are stored as null.
func (s *UserService) UpsertUser(ctx context.Context, input models.UserInput) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "clerkId", input.ClerkID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "clerkId", input.ClerkID)

	if input.ClerkID == "" {
		s.Logger.Warn(ErrClerkIDRequired, "func", funcName)
		return nil, apperrors.Validation(ErrClerkIDRequired)
	}

	user, err := s.UserRepo.UpsertUser(ctx, *models.NewUser(input))
	if err != nil {
		s.Logger.Error(ErrFailedToUpsertUser, "func", funcName, "clerkId", input.ClerkID, "error", err)
		return nil, apperrors.Storage(ErrFailedToUpsertUser, err)
	}

	s.Logger.Info("User upserted", "func", funcName, "clerkId", user.ClerkID, "ID", user.ID)
	return user, nil
}

// LookupUser returns (nil, nil) when no user has the given clerkID.
func (s *UserService) LookupUser(ctx context.Context, clerkID string) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "clerkId", clerkID)

	user, err := s.UserRepo.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "clerkId", clerkID, "error", err)
		return nil, apperrors.Storage(ErrRetrievingUser, err)
	}

	s.Logger.Debug("Exiting function", "func", funcName, "clerkId", clerkID, "found", user != nil)
	return user, nil
}
