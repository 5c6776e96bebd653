package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"

	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"

	// DefaultDatabaseName is used when neither the config nor the DSN names one.
	DefaultDatabaseName = "test"
)

var (
	errNotConnected = errors.New("MongoDBClient: not connected to a database")
	errInvalidField = errors.New("MongoDBClient: invalid or unsafe field")
)

// MongoDBClient implements the interfaces.DBClient interface for MongoDB operations.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	databaseName     string
	timeout          time.Duration
	validCollections map[string]bool // A map to validate collection names
	validFields      map[string]bool // A map to validate field names
	logger           interfaces.Logger
	now              func() time.Time
}

// NewMongoDB returns a interface for db client and error if it occurs
func NewMongoDB(dbConfig *config.Database, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("MongoDBClient: database config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("MongoDBClient: logger cannot be nil")
	}

	db := &MongoDBClient{
		timeout:          dbConfig.Timeout,
		databaseName:     dbConfig.DatabaseName,
		ServerOpts:       config.BuildServerAPIOptions(dbConfig.MongoDB.Options),
		validCollections: config.ListToMap(dbConfig.MongoDB.ValidCollections),
		validFields:      config.ListToMap(dbConfig.MongoDB.ValidFields),
		logger:           logger,
		now:              time.Now,
	}

	return db, nil
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The database is the configured name, else the one in the DSN path, else DefaultDatabaseName.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	// Validate the DSN format
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}

	databaseName := m.databaseName
	if databaseName == "" {
		var err error
		databaseName, err = m.getDBNameFromMongoDSN(dsn)
		if err != nil {
			return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %v", err)
		}
	}
	if databaseName == "" {
		databaseName = DefaultDatabaseName
	}

	// Set a timeout for the connection
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	clientOptions := options.Client().ApplyURI(dsn)

	// Set the server API options if provided
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.logger.Info("Connecting to MongoDB", "database", databaseName)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to create client: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %w", err)
	}

	m.client = client
	m.db = client.Database(databaseName)
	m.logger.Info("Connected to MongoDB", "database", databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	m.logger.Info("Disconnecting from MongoDB")
	return m.client.Disconnect(ctx)
}

// FindOne retrieves a single document from the specified collection using a filter.
// It decodes the result into the provided variable and returns a wrapped
// interfaces.ErrNoDocuments if no document is found.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document, result interfaces.Document) error {
	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeFilter(collectionName, filter)
	if err != nil {
		return err
	}
	m.logger.Debug("MongoDBClient: finding one", "collection", collectionName, "filter", sanitizedFilter)

	err = m.db.Collection(collectionName).FindOne(ctx, sanitizedFilter).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("MongoDBClient: no document found in %s: %w", collectionName, interfaces.ErrNoDocuments)
		}
		return fmt.Errorf("MongoDBClient: Failed to find one in %s: %w", collectionName, err)
	}

	return nil
}

// FindMany decodes every document matching filter into results, a pointer to a slice.
func (m *MongoDBClient) FindMany(ctx context.Context, collectionName string, filter interfaces.Document, sort []interfaces.SortField, results interfaces.Document) error {
	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeFilter(collectionName, filter)
	if err != nil {
		return err
	}
	m.logger.Debug("MongoDBClient: finding many", "collection", collectionName, "filter", sanitizedFilter)

	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(buildSort(sort))
	}

	cursor, err := m.db.Collection(collectionName).Find(ctx, sanitizedFilter, opts)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Finding many in %s failed: %w", collectionName, err)
	}

	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to decode cursor: %w", err)
	}

	return nil
}

// UpsertOne runs a single findOneAndUpdate with upsert enabled so concurrent
// callers converge on one document per filter. fields are $set on every call,
// createdAt only on insert.
func (m *MongoDBClient) UpsertOne(ctx context.Context, collectionName string, filter interfaces.Document, fields interfaces.Document, result interfaces.Document) error {
	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeFilter(collectionName, filter)
	if err != nil {
		return err
	}

	sanitizedFields, err := m.sanitizeDocument(fields)
	if err != nil {
		return err
	}

	update := buildUpsertUpdate(sanitizedFields, m.now())
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	m.logger.Debug("MongoDBClient: upserting one", "collection", collectionName, "filter", sanitizedFilter)

	err = m.db.Collection(collectionName).FindOneAndUpdate(ctx, sanitizedFilter, update, opts).Decode(result)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed upserting one in %s: %w", collectionName, err)
	}

	return nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return errNotConnected
	}
	return m.client.Ping(ctx, readpref.Primary())
}

// EnsureSchema creates the given index (a mongo.IndexModel or []mongo.IndexModel)
// on the collection. The collection is created implicitly when missing.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interfaces.Document) error {
	if m.db == nil {
		return errNotConnected
	}

	var models []mongo.IndexModel
	switch s := schema.(type) {
	case mongo.IndexModel:
		models = []mongo.IndexModel{s}
	case []mongo.IndexModel:
		models = s
	default:
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel for MongoDB, got %T", schema)
	}

	_, err := m.db.Collection(collectionName).Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to create indexes on %s: %w", collectionName, err)
	}
	return nil
}

func (m *MongoDBClient) checkCollection(collectionName string) error {
	if collectionName == "" {
		return fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if !m.validCollections[collectionName] {
		return fmt.Errorf("MongoDBClient: Invalid collection name: %s", collectionName)
	}
	if m.db == nil {
		return errNotConnected
	}
	return nil
}

// sanitizeFilter is sanitizeDocument for query filters, which must also be
// non-empty: an empty filter matches every document in the collection.
func (m *MongoDBClient) sanitizeFilter(collectionName string, filter interfaces.Document) (bson.M, error) {
	sanitized, err := m.sanitizeDocument(filter)
	if err != nil {
		return nil, err
	}
	if len(sanitized) == 0 {
		return nil, fmt.Errorf("MongoDBClient: query on %s requires a non-empty filter", collectionName)
	}
	return sanitized, nil
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
// It returns "" when the DSN has no path.
func (m *MongoDBClient) getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}

// sanitizeDocument copies document into a bson.M. The ID field, fields
// missing from the allow list, keys containing '$' or '.' and nested
// documents (operator injection) are rejected with an error rather than
// dropped, so a filter can never silently widen.
func (m *MongoDBClient) sanitizeDocument(document interfaces.Document) (bson.M, error) {
	var docMap map[string]interface{}
	switch d := document.(type) {
	case nil:
		return bson.M{}, nil
	case bson.M:
		docMap = d
	case map[string]interface{}:
		docMap = d
	default:
		return nil, fmt.Errorf("MongoDBClient: document must be a map, got %T", document)
	}

	sanitized := bson.M{}
	for key, value := range docMap {
		if key == IDFIELD || !m.validFields[key] || strings.ContainsAny(key, "$.") {
			m.logger.Warn("MongoDBClient: rejecting invalid or unsafe field name", "field", key)
			return nil, fmt.Errorf("%w: %q", errInvalidField, key)
		}

		switch value.(type) {
		case bson.M, bson.D, map[string]interface{}:
			m.logger.Warn("MongoDBClient: rejecting nested document value", "field", key)
			return nil, fmt.Errorf("%w: nested document for %q", errInvalidField, key)
		}

		sanitized[key] = value
	}

	return sanitized, nil
}

// buildUpsertUpdate builds the update document for UpsertOne. Timestamps are
// truncated to the millisecond precision BSON dates keep.
func buildUpsertUpdate(fields bson.M, now time.Time) bson.M {
	now = now.UTC().Truncate(time.Millisecond)

	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	set[UpdatedAtField] = now

	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{CreatedAtField: now},
	}
}

func buildSort(sort []interfaces.SortField) bson.D {
	d := make(bson.D, 0, len(sort))
	for _, field := range sort {
		direction := 1
		if field.Descending {
			direction = -1
		}
		d = append(d, bson.E{Key: field.Field, Value: direction})
	}
	return d
}
