package responseservice

import (
	"context"

	"github.com/haguru/llmvault/internal/apperrors"
	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"
	"github.com/haguru/llmvault/pkg/helper"
)

// ResponseService archives model responses against existing users.
type ResponseService struct {
	UserRepo     interfaces.UserRepository
	ResponseRepo interfaces.ResponseRepository
	Logger       interfaces.Logger
}

func NewResponseService(userRepo interfaces.UserRepository, responseRepo interfaces.ResponseRepository, logger interfaces.Logger) *ResponseService {
	return &ResponseService{
		UserRepo:     userRepo,
		ResponseRepo: responseRepo,
		Logger:       logger,
	}
}

// UpsertResponse stores the response under its ResponseID, replacing the
// owner, request fields and payload of an existing record. The owning user
// must already exist; nothing is written otherwise.
func (s *ResponseService) UpsertResponse(ctx context.Context, input models.ResponseInput) (*models.Response, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "responseId", input.ResponseID, "clerkId", input.ClerkID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "responseId", input.ResponseID)

	if input.ResponseID == "" {
		s.Logger.Warn(ErrResponseIDRequired, "func", funcName)
		return nil, apperrors.Validation(ErrResponseIDRequired)
	}
	if input.ClerkID == "" {
		s.Logger.Warn(ErrClerkIDRequired, "func", funcName, "responseId", input.ResponseID)
		return nil, apperrors.Validation(ErrClerkIDRequired)
	}

	user, err := s.UserRepo.GetUserByClerkID(ctx, input.ClerkID)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "clerkId", input.ClerkID, "error", err)
		return nil, apperrors.Storage(ErrRetrievingUser, err)
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFoundInDatabase, "func", funcName, "clerkId", input.ClerkID)
		return nil, apperrors.Referential(ErrUserNotFoundInDatabase)
	}

	payload, err := models.EncodePayload(input.Payload)
	if err != nil {
		s.Logger.Warn(ErrInvalidPayload, "func", funcName, "responseId", input.ResponseID, "error", err)
		return nil, apperrors.Validation(ErrInvalidPayload)
	}

	response, err := s.ResponseRepo.UpsertResponse(ctx, models.Response{
		ResponseID: input.ResponseID,
		UserID:     user.ID,
		Request:    input.Request,
		RequestURL: models.Nullable(input.RequestURL),
		Payload:    payload,
	})
	if err != nil {
		s.Logger.Error(ErrFailedToSaveResponse, "func", funcName, "responseId", input.ResponseID, "error", err)
		return nil, apperrors.Storage(ErrFailedToSaveResponse, err)
	}

	s.Logger.Info("Response saved", "func", funcName, "responseId", response.ResponseID, "user", user.ID)
	return response, nil
}

// History returns every response owned by the user, newest first. A known
// user without responses gets an empty, non-nil slice.
func (s *ResponseService) History(ctx context.Context, clerkID string) ([]models.Response, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "clerkId", clerkID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "clerkId", clerkID)

	if clerkID == "" {
		return nil, apperrors.Validation(ErrClerkIDRequired)
	}

	user, err := s.UserRepo.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "clerkId", clerkID, "error", err)
		return nil, apperrors.Storage(ErrRetrievingUser, err)
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFound, "func", funcName, "clerkId", clerkID)
		return nil, apperrors.Referential(ErrUserNotFound)
	}

	responses, err := s.ResponseRepo.ListResponsesByUser(ctx, user.ID)
	if err != nil {
		s.Logger.Error(ErrFailedToListResponses, "func", funcName, "clerkId", clerkID, "error", err)
		return nil, apperrors.Storage(ErrFailedToListResponses, err)
	}
	if responses == nil {
		responses = []models.Response{}
	}

	s.Logger.Debug("History retrieved", "func", funcName, "clerkId", clerkID, "count", len(responses))
	return responses, nil
}
