package responseservice

import (
	"context"
	"encoding/json"
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

func newTestService(t *testing.T) (*ResponseService, *mocks.MockUserRepository, *mocks.MockResponseRepository) {
	t.Helper()
	users := mocks.NewMockUserRepository(t)
	responses := mocks.NewMockResponseRepository(t)
	return NewResponseService(users, responses, zerolog.NewLoggerWithWriter("test", io.Discard)), users, responses
}

func TestResponseService_UpsertResponseValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ResponseInput
		wantMsg string
	}{
		{name: "missing responseId", input: models.ResponseInput{ClerkID: "user_1"}, wantMsg: ErrResponseIDRequired},
		{name: "both missing reports responseId first", input: models.ResponseInput{}, wantMsg: ErrResponseIDRequired},
		{name: "missing clerkId", input: models.ResponseInput{ResponseID: "r1"}, wantMsg: ErrClerkIDRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.UpsertResponse(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, tt.wantMsg, apperrors.Message(err))
		})
	}
}

func TestResponseService_UpsertResponseInvalidPayload(t *testing.T) {
	svc, users, _ := newTestService(t)
	users.On("GetUserByClerkID", mock.Anything, "user_1").Return(&models.User{ID: "u-1"}, nil).Once()

	_, err := svc.UpsertResponse(context.Background(), models.ResponseInput{
		ResponseID: "r1", ClerkID: "user_1", Payload: json.RawMessage(`{"a":`),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, ErrInvalidPayload, apperrors.Message(err))
}

func TestResponseService_UpsertResponseUnknownUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	users.On("GetUserByClerkID", mock.Anything, "ghost").Return(nil, nil).Once()

	_, err := svc.UpsertResponse(context.Background(), models.ResponseInput{ResponseID: "r1", ClerkID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindReferential, apperrors.KindOf(err))
	assert.Equal(t, ErrUserNotFoundInDatabase, apperrors.Message(err))
}

func TestResponseService_UpsertResponse(t *testing.T) {
	svc, users, responses := newTestService(t)
	users.On("GetUserByClerkID", mock.Anything, "user_1").Return(&models.User{ID: "u-1", ClerkID: "user_1"}, nil).Once()

	want := models.Response{
		ResponseID: "r1",
		UserID:     "u-1",
		Request:    nil,
		RequestURL: models.Nullable("https://api.example.com"),
		Payload:    `{"ok":true}`,
	}
	responses.On("UpsertResponse", mock.Anything, want).Return(func(_ context.Context, r models.Response) (*models.Response, error) {
		r.ID = "doc-1"
		return &r, nil
	}).Once()

	got, err := svc.UpsertResponse(context.Background(), models.ResponseInput{
		ResponseID: "r1",
		ClerkID:    "user_1",
		RequestURL: "https://api.example.com",
		Payload:    json.RawMessage(`{ "ok": true }`),
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "u-1", got.UserID)
}

func TestResponseService_UpsertResponseKeepsEmptyRequest(t *testing.T) {
	svc, users, responses := newTestService(t)
	users.On("GetUserByClerkID", mock.Anything, "user_1").Return(&models.User{ID: "u-1"}, nil).Once()

	empty := ""
	responses.On("UpsertResponse", mock.Anything, mock.MatchedBy(func(r models.Response) bool {
		return r.Request != nil && *r.Request == "" && r.RequestURL == nil
	})).Return(&models.Response{ID: "doc-1", Request: &empty}, nil).Once()

	got, err := svc.UpsertResponse(context.Background(), models.ResponseInput{
		ResponseID: "r1", ClerkID: "user_1", Request: &empty, Payload: json.RawMessage(`"a"`),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Request)
	assert.Equal(t, "", *got.Request)
}

func TestResponseService_UpsertResponseStorageFailure(t *testing.T) {
	svc, users, responses := newTestService(t)
	users.On("GetUserByClerkID", mock.Anything, "user_1").Return(&models.User{ID: "u-1"}, nil).Once()
	responses.On("UpsertResponse", mock.Anything, mock.Anything).Return(nil, errors.New("duplicate key")).Once()

	_, err := svc.UpsertResponse(context.Background(), models.ResponseInput{ResponseID: "r1", ClerkID: "user_1"})
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))
	assert.Contains(t, apperrors.Message(err), "duplicate key")
}

func TestResponseService_History(t *testing.T) {
	tests := []struct {
		name     string
		clerkID  string
		user     *models.User
		lookErr  error
		list     []models.Response
		wantLen  int
		wantKind apperrors.Kind
	}{
		{
			name:    "ordered history",
			clerkID: "user_1",
			user:    &models.User{ID: "u-1"},
			list:    []models.Response{{ResponseID: "b"}, {ResponseID: "a"}},
			wantLen: 2,
		},
		{name: "no responses", clerkID: "user_1", user: &models.User{ID: "u-1"}, list: nil, wantLen: 0},
		{name: "unknown user", clerkID: "ghost", wantKind: apperrors.KindReferential},
		{name: "lookup failure", clerkID: "user_1", lookErr: errors.New("timeout"), wantKind: apperrors.KindStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, responses := newTestService(t)
			users.On("GetUserByClerkID", mock.Anything, tt.clerkID).Return(tt.user, tt.lookErr).Once()
			if tt.user != nil {
				responses.On("ListResponsesByUser", mock.Anything, tt.user.ID).Return(tt.list, nil).Once()
			}

			got, err := svc.History(context.Background(), tt.clerkID)
			if tt.wantKind != apperrors.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				if tt.wantKind == apperrors.KindReferential {
					assert.Equal(t, ErrUserNotFound, apperrors.Message(err))
				}
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
		})
	}
}
