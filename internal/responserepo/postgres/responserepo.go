package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"
)

const (
	ResponsesTable = "llm_responses"

	ResponseIDColumn = "response_id"
	UserIDColumn     = "user_id"
	RequestColumn    = "request"
	RequestURLColumn = "request_url"
	ResponseColumn   = "response"
	CreatedAtColumn  = "created_at"
	IDColumn         = "id"
)

var createResponsesTable = []string{
	`CREATE TABLE IF NOT EXISTS llm_responses (
	id TEXT PRIMARY KEY,
	response_id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	request TEXT,
	request_url TEXT,
	response TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS llm_responses_user_created_idx ON llm_responses (user_id, created_at DESC)`,
}

type pgResponse struct {
	ID         string    `db:"id"`
	ResponseID string    `db:"response_id"`
	UserID     string    `db:"user_id"`
	Request    *string   `db:"request"`
	RequestURL *string   `db:"request_url"`
	Response   string    `db:"response"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *pgResponse) toModel() models.Response {
	return models.Response{
		ID:         r.ID,
		ResponseID: r.ResponseID,
		UserID:     r.UserID,
		Request:    r.Request,
		RequestURL: r.RequestURL,
		Payload:    r.Response,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// PostgresResponseRepository implements ResponseRepository on the llm_responses table.
type PostgresResponseRepository struct {
	dbClient interfaces.DBClient
}

func NewPostgresResponseRepository(dbClient interfaces.DBClient) (interfaces.ResponseRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresResponseRepository{dbClient: dbClient}, nil
}

func (r *PostgresResponseRepository) UpsertResponse(ctx context.Context, response models.Response) (*models.Response, error) {
	filter := map[string]interface{}{ResponseIDColumn: response.ResponseID}
	fields := map[string]interface{}{
		UserIDColumn:     response.UserID,
		RequestColumn:    response.Request,
		RequestURLColumn: response.RequestURL,
		ResponseColumn:   response.Payload,
	}

	var stored pgResponse
	if err := r.dbClient.UpsertOne(ctx, ResponsesTable, filter, fields, &stored); err != nil {
		return nil, fmt.Errorf("failed to upsert response in PostgreSQL: %w", err)
	}
	result := stored.toModel()
	return &result, nil
}

// ListResponsesByUser returns the user's responses, newest first.
func (r *PostgresResponseRepository) ListResponsesByUser(ctx context.Context, userID string) ([]models.Response, error) {
	sort := []interfaces.SortField{
		{Field: CreatedAtColumn, Descending: true},
		{Field: IDColumn, Descending: true},
	}

	var stored []pgResponse
	if err := r.dbClient.FindMany(ctx, ResponsesTable, map[string]interface{}{UserIDColumn: userID}, sort, &stored); err != nil {
		return nil, fmt.Errorf("failed to list responses from PostgreSQL: %w", err)
	}

	responses := make([]models.Response, 0, len(stored))
	for i := range stored {
		responses = append(responses, stored[i].toModel())
	}
	return responses, nil
}

// EnsureIndices creates the llm_responses table and the history index.
// user_id is checked by the service before writing, not by a foreign key.
func (r *PostgresResponseRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, ResponsesTable, createResponsesTable)
}
