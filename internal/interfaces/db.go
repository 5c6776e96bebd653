package interfaces

import (
	"context"
	"errors"
)

// ErrNoDocuments is returned by FindOne when nothing matches the filter.
var ErrNoDocuments = errors.New("no document matches the filter")

// Document is a generic interface to represent data that can be stored
// and retrieved from the database. Filters and field sets are expected to be
// map[string]interface{} (bson.M is accepted by the Mongo client), results are
// pointers to structs or to slices of structs.
type Document interface{}

// SortField orders FindMany results by a single field.
type SortField struct {
	Field      string
	Descending bool
}

// DBClient defines the interface for a generic database client.
// It abstracts the operations the repositories need across MongoDB and PostgreSQL.
type DBClient interface {
	// Connect establishes a connection to the database described by dsn.
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// FindOne decodes the first document matching filter into result.
	// Returns ErrNoDocuments (wrapped) when no document matches.
	FindOne(ctx context.Context, collectionName string, filter Document, result Document) error

	// FindMany decodes every document matching filter into results, which must be
	// a pointer to a slice. Documents are ordered by sort, in the order given.
	FindMany(ctx context.Context, collectionName string, filter Document, sort []SortField, results Document) error

	// UpsertOne atomically updates the document matching filter with fields, or
	// inserts a new one built from filter and fields when none matches.
	// The post-write document is decoded into result. The client maintains the
	// createdAt/updatedAt timestamps.
	UpsertOne(ctx context.Context, collectionName string, filter Document, fields Document, result Document) error

	// EnsureSchema applies a backend specific schema definition (a mongo.IndexModel
	// or a DDL statement) to the collection/table.
	EnsureSchema(ctx context.Context, collectionName string, schema Document) error

	// Ping checks the health of the database connection.
	Ping(ctx context.Context) error
}
