package interfaces

import (
	"context"

	"github.com/haguru/llmvault/internal/models"
)

// UserRepository stores users keyed by their identity provider id.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByClerkID returns (nil, nil) when the user does not exist.
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	EnsureIndices(ctx context.Context) error
}

// ResponseRepository stores captured model responses keyed by response id.
type ResponseRepository interface {
	UpsertResponse(ctx context.Context, response models.Response) (*models.Response, error)
	// ListResponsesByUser returns the user's responses, newest first.
	ListResponsesByUser(ctx context.Context, userID string) ([]models.Response, error)
	EnsureIndices(ctx context.Context) error
}
