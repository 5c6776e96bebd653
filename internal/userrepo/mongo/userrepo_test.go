package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/interfaces/mocks"
	"github.com/haguru/llmvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
)

func TestNewMongoUserRepository(t *testing.T) {
	_, err := NewMongoUserRepository(nil)
	assert.Error(t, err)

	repo, err := NewMongoUserRepository(mocks.NewMockDBClient(t))
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestMongoUserRepository_UpsertUser(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	email := "a@example.com"

	db := mocks.NewMockDBClient(t)
	db.On("UpsertOne", mock.Anything, config.UsersCollection,
		bson.M{ClerkIDField: "user_1"},
		mock.MatchedBy(func(fields interfaces.Document) bool {
			m := fields.(bson.M)
			got, ok := m[EmailField].(*string)
			return ok && *got == email && m[FirstNameField].(*string) == nil && len(m) == 3
		}),
		mock.Anything,
	).Run(func(args mock.Arguments) {
		out := args.Get(4).(*mongoUser)
		*out = mongoUser{ID: oid, ClerkID: "user_1", Email: &email, CreatedAt: now, UpdatedAt: now}
	}).Return(nil).Once()

	repo, err := NewMongoUserRepository(db)
	require.NoError(t, err)

	got, err := repo.UpsertUser(context.Background(), models.User{ClerkID: "user_1", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), got.ID)
	assert.Equal(t, "user_1", got.ClerkID)
	assert.Equal(t, &email, got.Email)
	assert.Nil(t, got.FirstName)
	assert.Equal(t, now, got.CreatedAt)
}

func TestMongoUserRepository_UpsertUserError(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	db.On("UpsertOne", mock.Anything, config.UsersCollection, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset")).Once()

	repo, _ := NewMongoUserRepository(db)
	_, err := repo.UpsertUser(context.Background(), models.User{ClerkID: "user_1"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestMongoUserRepository_GetUserByClerkID(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name    string
		findErr error
		wantNil bool
		wantErr bool
	}{
		{name: "found"},
		{name: "not found", findErr: fmt.Errorf("wrapped: %w", interfaces.ErrNoDocuments), wantNil: true},
		{name: "storage failure", findErr: errors.New("timeout"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewMockDBClient(t)
			call := db.On("FindOne", mock.Anything, config.UsersCollection, bson.M{ClerkIDField: "user_1"}, mock.Anything)
			if tt.findErr != nil {
				call.Return(tt.findErr)
			} else {
				call.Run(func(args mock.Arguments) {
					*args.Get(3).(*mongoUser) = mongoUser{ID: oid, ClerkID: "user_1"}
				}).Return(nil)
			}

			repo, _ := NewMongoUserRepository(db)
			got, err := repo.GetUserByClerkID(context.Background(), "user_1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, oid.Hex(), got.ID)
		})
	}
}

func TestMongoUserRepository_EnsureIndices(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	db.On("EnsureSchema", mock.Anything, config.UsersCollection, mock.MatchedBy(func(schema interfaces.Document) bool {
		idx, ok := schema.(mongosdk.IndexModel)
		return ok && idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique
	})).Return(nil).Once()

	repo, _ := NewMongoUserRepository(db)
	assert.NoError(t, repo.EnsureIndices(context.Background()))
}

func TestUserFieldsAreRequiredByConfig(t *testing.T) {
	for _, field := range []string{ClerkIDField, EmailField, FirstNameField, LastNameField} {
		assert.Contains(t, config.RequiredFields, field)
	}
	assert.Contains(t, config.RequiredCollections, config.UsersCollection)
}
