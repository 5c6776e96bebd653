package interfaces

import (
	"context"

	"github.com/haguru/llmvault/internal/models"
)

type UserService interface {
	UpsertUser(ctx context.Context, input models.UserInput) (*models.User, error)
	LookupUser(ctx context.Context, clerkID string) (*models.User, error)
}

type ResponseService interface {
	UpsertResponse(ctx context.Context, input models.ResponseInput) (*models.Response, error)
	History(ctx context.Context, clerkID string) ([]models.Response, error)
}
