package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"
)

const (
	UsersTable = "users"

	ClerkIDColumn   = "clerk_id"
	EmailColumn     = "email"
	FirstNameColumn = "first_name"
	LastNameColumn  = "last_name"

	createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	clerk_id TEXT NOT NULL UNIQUE,
	email TEXT,
	first_name TEXT,
	last_name TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
)

type pgUser struct {
	ID        string    `db:"id"`
	ClerkID   string    `db:"clerk_id"`
	Email     *string   `db:"email"`
	FirstName *string   `db:"first_name"`
	LastName  *string   `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *pgUser) toModel() *models.User {
	return &models.User{
		ID:        u.ID,
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// PostgresUserRepository implements UserRepository on a relational users table.
type PostgresUserRepository struct {
	dbClient interfaces.DBClient
}

func NewPostgresUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

func (r *PostgresUserRepository) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	filter := map[string]interface{}{ClerkIDColumn: user.ClerkID}
	fields := map[string]interface{}{
		EmailColumn:     user.Email,
		FirstNameColumn: user.FirstName,
		LastNameColumn:  user.LastName,
	}

	var stored pgUser
	if err := r.dbClient.UpsertOne(ctx, UsersTable, filter, fields, &stored); err != nil {
		return nil, fmt.Errorf("failed to upsert user in PostgreSQL: %w", err)
	}
	return stored.toModel(), nil
}

func (r *PostgresUserRepository) GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var stored pgUser
	err := r.dbClient.FindOne(ctx, UsersTable, map[string]interface{}{ClerkIDColumn: clerkID}, &stored)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by clerk_id from PostgreSQL: %w", err)
	}
	return stored.toModel(), nil
}

// EnsureIndices creates the users table; clerk_id carries the unique index.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, UsersTable, createUsersTable)
}
