package mongo

import (
	"context"
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
	ResponseIDField = "responseId"
	UserField       = "user"
	RequestField    = "request"
	RequestURLField = "requestUrl"
	ResponseField   = "response"
	CreatedAtField  = "createdAt"
	IDField         = "_id"
)

// mongoResponse is the stored shape of a response document.
type mongoResponse struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ResponseID string             `bson:"responseId"`
	User       primitive.ObjectID `bson:"user"`
	Request    *string            `bson:"request"`
	RequestURL *string            `bson:"requestUrl"`
	Response   string             `bson:"response"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (r *mongoResponse) toModel() models.Response {
	return models.Response{
		ID:         r.ID.Hex(),
		ResponseID: r.ResponseID,
		UserID:     r.User.Hex(),
		Request:    r.Request,
		RequestURL: r.RequestURL,
		Payload:    r.Response,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// MongoResponseRepository implements ResponseRepository using the generic DBClient.
type MongoResponseRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoResponseRepository creates a new MongoDB repository instance.
func NewMongoResponseRepository(dbClient interfaces.DBClient) (interfaces.ResponseRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoResponseRepository{dbClient: dbClient}, nil
}

// UpsertResponse writes the response keyed by ResponseID. UserID must be the
// hex ObjectID of an existing user.
func (r *MongoResponseRepository) UpsertResponse(ctx context.Context, response models.Response) (*models.Response, error) {
	userID, err := primitive.ObjectIDFromHex(response.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user reference %q: %w", response.UserID, err)
	}

	filter := bson.M{ResponseIDField: response.ResponseID}
	fields := bson.M{
		UserField:       userID,
		RequestField:    response.Request,
		RequestURLField: response.RequestURL,
		ResponseField:   response.Payload,
	}

	var stored mongoResponse
	if err := r.dbClient.UpsertOne(ctx, config.ResponsesCollection, filter, fields, &stored); err != nil {
		return nil, fmt.Errorf("failed to upsert response in MongoDB: %w", err)
	}

	result := stored.toModel()
	return &result, nil
}

// ListResponsesByUser returns the user's responses ordered by createdAt, newest first.
func (r *MongoResponseRepository) ListResponsesByUser(ctx context.Context, userID string) ([]models.Response, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user reference %q: %w", userID, err)
	}

	sort := []interfaces.SortField{
		{Field: CreatedAtField, Descending: true},
		{Field: IDField, Descending: true},
	}

	var stored []mongoResponse
	if err := r.dbClient.FindMany(ctx, config.ResponsesCollection, bson.M{UserField: oid}, sort, &stored); err != nil {
		return nil, fmt.Errorf("failed to list responses from MongoDB: %w", err)
	}

	responses := make([]models.Response, 0, len(stored))
	for i := range stored {
		responses = append(responses, stored[i].toModel())
	}
	return responses, nil
}

// EnsureIndices creates the unique responseId index and the index backing
// the per-user history query.
func (r *MongoResponseRepository) EnsureIndices(ctx context.Context) error {
	indexModels := []mongosdk.IndexModel{
		{
			Keys:    bson.D{{Key: ResponseIDField, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: UserField, Value: 1}, {Key: CreatedAtField, Value: -1}},
		},
	}
	return r.dbClient.EnsureSchema(ctx, config.ResponsesCollection, indexModels)
}
