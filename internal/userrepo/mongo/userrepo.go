package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ClerkIDField   = "clerkId"
	EmailField     = "email"
	FirstNameField = "firstName"
	LastNameField  = "lastName"
)

// mongoUser is the stored shape of a user document.
type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ClerkID   string             `bson:"clerkId"`
	Email     *string            `bson:"email"`
	FirstName *string            `bson:"firstName"`
	LastName  *string            `bson:"lastName"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (u *mongoUser) toModel() *models.User {
	return &models.User{
		ID:        u.ID.Hex(),
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// MongoUserRepository implements UserRepository using the generic DBClient.
type MongoUserRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
func NewMongoUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// UpsertUser writes the user keyed by ClerkID and returns the stored document.
func (r *MongoUserRepository) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	filter := bson.M{ClerkIDField: user.ClerkID}
	fields := bson.M{
		EmailField:     user.Email,
		FirstNameField: user.FirstName,
		LastNameField:  user.LastName,
	}

	var stored mongoUser
	if err := r.dbClient.UpsertOne(ctx, config.UsersCollection, filter, fields, &stored); err != nil {
		return nil, fmt.Errorf("failed to upsert user in MongoDB: %w", err)
	}

	return stored.toModel(), nil
}

// GetUserByClerkID returns (nil, nil) when no user has the given ClerkID.
func (r *MongoUserRepository) GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var stored mongoUser

	err := r.dbClient.FindOne(ctx, config.UsersCollection, bson.M{ClerkIDField: clerkID}, &stored)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by clerkId from MongoDB: %w", err)
	}

	return stored.toModel(), nil
}

// EnsureIndices creates the unique clerkId index.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	indexModel := mongosdk.IndexModel{
		Keys:    bson.D{{Key: ClerkIDField, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	return r.dbClient.EnsureSchema(ctx, config.UsersCollection, indexModel)
}
