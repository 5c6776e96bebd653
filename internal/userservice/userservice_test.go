package userservice

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/haguru/llmvault/internal/apperrors"
	"github.com/haguru/llmvault/internal/interfaces/mocks"
	"github.com/haguru/llmvault/internal/models"
	"github.com/haguru/llmvault/pkg/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpsertUser(t *testing.T) {
	type args struct {
		input models.UserInput
	}
	tests := []struct {
		name     string
		args     args
		repoUser models.User
		repoErr  error
		wantKind apperrors.Kind
		wantErr  bool
	}{
		{
			name:     "full profile",
			args:     args{input: models.UserInput{ClerkID: "user_1", Email: "a@example.com", FirstName: "Ada", LastName: "L"}},
			repoUser: models.User{ClerkID: "user_1", Email: strPtr("a@example.com"), FirstName: strPtr("Ada"), LastName: strPtr("L")},
		},
		{
			name:     "empty profile fields become null",
			args:     args{input: models.UserInput{ClerkID: "user_1"}},
			repoUser: models.User{ClerkID: "user_1"},
		},
		{
			name:     "missing clerkId",
			args:     args{input: models.UserInput{Email: "a@example.com"}},
			wantErr:  true,
			wantKind: apperrors.KindValidation,
		},
		{
			name:     "storage failure",
			args:     args{input: models.UserInput{ClerkID: "user_1"}},
			repoUser: models.User{ClerkID: "user_1"},
			repoErr:  errors.New("write concern error"),
			wantErr:  true,
			wantKind: apperrors.KindStorage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockUserRepository(t)
			if tt.args.input.ClerkID != "" {
				stored := tt.repoUser
				stored.ID = "id-1"
				var ret *models.User
				if tt.repoErr == nil {
					ret = &stored
				}
				repo.On("UpsertUser", mock.Anything, tt.repoUser).Return(ret, tt.repoErr).Once()
			}

			svc := NewUserService(repo, zerolog.NewLoggerWithWriter("test", io.Discard))
			got, err := svc.UpsertUser(context.Background(), tt.args.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				if tt.wantKind == apperrors.KindValidation {
					assert.Equal(t, ErrClerkIDRequired, apperrors.Message(err))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "id-1", got.ID)
			assert.Equal(t, tt.repoUser.Email, got.Email)
		})
	}
}

func TestUserService_LookupUser(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	repo.On("GetUserByClerkID", mock.Anything, "known").Return(&models.User{ID: "id-1", ClerkID: "known"}, nil).Once()
	repo.On("GetUserByClerkID", mock.Anything, "unknown").Return(nil, nil).Once()
	repo.On("GetUserByClerkID", mock.Anything, "broken").Return(nil, errors.New("timeout")).Once()

	svc := NewUserService(repo, zerolog.NewLoggerWithWriter("test", io.Discard))

	user, err := svc.LookupUser(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, "id-1", user.ID)

	user, err = svc.LookupUser(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = svc.LookupUser(context.Background(), "broken")
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))
}
