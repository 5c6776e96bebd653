package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Minute

	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

var (
	errNotConnected = errors.New("PostgresDatabaseClient: not connected to a database")
	identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// PostgresDatabaseClient implements the DBClient interface for PostgreSQL databases.
// Rows are mapped to structs through their `db` tags.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	timeout         time.Duration
	logger          interfaces.Logger
	now             func() time.Time
	newID           func() string
}

// newRowID returns a UUIDv7, which sorts by creation time. Listings break
// created_at ties on id, so ids generated later must compare greater.
func newRowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewPostgresDatabaseClient creates an unconnected client from the database config.
func NewPostgresDatabaseClient(dbConfig *config.Database, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient: database config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient: logger cannot be nil")
	}

	opts := dbConfig.Postgres.Options
	client := &PostgresDatabaseClient{
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
		timeout:         dbConfig.Timeout,
		logger:          logger,
		now:             time.Now,
		newID:           newRowID,
	}
	if client.MaxOpenConns <= 0 {
		client.MaxOpenConns = DefaultMaxOpenConns
	}
	if client.MaxIdleConns <= 0 {
		client.MaxIdleConns = DefaultMaxIdleConns
	}
	if client.ConnMaxLifetime <= 0 {
		client.ConnMaxLifetime = DefaultConnMaxLifetime
	}

	return client, nil
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	p.db = db
	p.logger.Info("Connected to PostgreSQL")
	return nil
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	p.logger.Info("Disconnecting from PostgreSQL")
	return p.db.Close()
}

// FindOne scans the first row matching filter into result, a pointer to a struct.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document, result interfaces.Document) error {
	if p.db == nil {
		return errNotConnected
	}

	filterMap, err := toMap(filter)
	if err != nil {
		return err
	}
	if len(filterMap) == 0 {
		return fmt.Errorf("PostgreSQL FindOne requires a non-empty filter")
	}

	elem, err := structElem(result)
	if err != nil {
		return err
	}
	columns := structColumns(elem.Type())

	query, args, err := buildSelectQuery(tableName, columns, filterMap, nil, 1)
	if err != nil {
		return err
	}
	p.logger.Debug("PostgresDatabaseClient: finding one", "table", tableName)

	row := p.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(fieldPointers(elem)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("PostgresDatabaseClient: no row found in %s: %w", tableName, interfaces.ErrNoDocuments)
		}
		return fmt.Errorf("PostgresDatabaseClient: failed to find one in %s: %w", tableName, err)
	}
	return nil
}

// FindMany scans every row matching filter into results, a pointer to a slice of structs.
func (p *PostgresDatabaseClient) FindMany(ctx context.Context, tableName string, filter interfaces.Document, sortBy []interfaces.SortField, results interfaces.Document) error {
	if p.db == nil {
		return errNotConnected
	}

	filterMap, err := toMap(filter)
	if err != nil {
		return err
	}

	sliceValue := reflect.ValueOf(results)
	if sliceValue.Kind() != reflect.Ptr || sliceValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results must be a pointer to a slice")
	}
	sliceValue = sliceValue.Elem()
	elemType := sliceValue.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("results must be a pointer to a slice of structs")
	}

	query, args, err := buildSelectQuery(tableName, structColumns(elemType), filterMap, sortBy, 0)
	if err != nil {
		return err
	}
	p.logger.Debug("PostgresDatabaseClient: finding many", "table", tableName)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("PostgresDatabaseClient: failed to find many in %s: %w", tableName, err)
	}
	defer rows.Close()

	out := reflect.MakeSlice(sliceValue.Type(), 0, 0)
	for rows.Next() {
		item := reflect.New(elemType).Elem()
		if err := rows.Scan(fieldPointers(item)...); err != nil {
			return fmt.Errorf("PostgresDatabaseClient: failed to scan row: %w", err)
		}
		out = reflect.Append(out, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("PostgresDatabaseClient: failed to iterate rows: %w", err)
	}

	sliceValue.Set(out)
	return nil
}

// UpsertOne runs a single INSERT ... ON CONFLICT DO UPDATE keyed by the one
// column in filter, which must carry a unique index. The written row is
// scanned into result.
func (p *PostgresDatabaseClient) UpsertOne(ctx context.Context, tableName string, filter interfaces.Document, fields interfaces.Document, result interfaces.Document) error {
	if p.db == nil {
		return errNotConnected
	}

	filterMap, err := toMap(filter)
	if err != nil {
		return err
	}
	if len(filterMap) != 1 {
		return fmt.Errorf("PostgreSQL UpsertOne expects a filter on exactly one unique column")
	}
	fieldMap, err := toMap(fields)
	if err != nil {
		return err
	}

	elem, err := structElem(result)
	if err != nil {
		return err
	}

	var conflictColumn string
	var conflictValue interface{}
	for col, val := range filterMap {
		conflictColumn, conflictValue = col, val
	}

	fieldColumns := sortedKeys(fieldMap)
	query, err := buildUpsertQuery(tableName, conflictColumn, fieldColumns, structColumns(elem.Type()))
	if err != nil {
		return err
	}

	now := p.now().UTC().Truncate(time.Microsecond)
	args := []interface{}{p.newID(), conflictValue}
	for _, col := range fieldColumns {
		args = append(args, fieldMap[col])
	}
	args = append(args, now, now)

	p.logger.Debug("PostgresDatabaseClient: upserting one", "table", tableName, "conflict", conflictColumn)

	if err := p.db.QueryRowContext(ctx, query, args...).Scan(fieldPointers(elem)...); err != nil {
		return fmt.Errorf("PostgresDatabaseClient: failed upserting one in %s: %w", tableName, err)
	}
	return nil
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return errNotConnected
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema executes DDL statements (a string or []string) against the database.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return errNotConnected
	}

	var statements []string
	switch s := schema.(type) {
	case string:
		statements = []string{s}
	case []string:
		statements = s
	default:
		return fmt.Errorf("EnsureSchema expects DDL statements for PostgreSQL, got %T", schema)
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("PostgresDatabaseClient: failed to ensure schema for %s: %w", tableName, err)
		}
	}
	return nil
}

// buildSelectQuery builds a parameterized SELECT. limit <= 0 means no limit.
func buildSelectQuery(tableName string, columns []string, filter map[string]interface{}, sortBy []interfaces.SortField, limit int) (string, []interface{}, error) {
	if err := checkIdentifiers(append([]string{tableName}, columns...)...); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	args := make([]interface{}, 0, len(filter))

	// This is a safe use of fmt.Sprintf, identifiers are checked above and values are parameters.
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), tableName) // #nosec G201

	keys := sortedKeys(filter)
	if len(keys) > 0 {
		if err := checkIdentifiers(keys...); err != nil {
			return "", nil, err
		}
		clauses := make([]string, 0, len(keys))
		for i, col := range keys {
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, i+1))
			args = append(args, filter[col])
		}
		b.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}

	if len(sortBy) > 0 {
		order := make([]string, 0, len(sortBy))
		for _, field := range sortBy {
			if err := checkIdentifiers(field.Field); err != nil {
				return "", nil, err
			}
			direction := "ASC"
			if field.Descending {
				direction = "DESC"
			}
			order = append(order, field.Field+" "+direction)
		}
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	return b.String(), args, nil
}

// buildUpsertQuery builds the INSERT ... ON CONFLICT statement used by UpsertOne.
// Parameters are: id, conflict value, one per field column, created_at, updated_at.
func buildUpsertQuery(tableName, conflictColumn string, fieldColumns, returning []string) (string, error) {
	idents := append([]string{tableName, conflictColumn}, fieldColumns...)
	if err := checkIdentifiers(append(idents, returning...)...); err != nil {
		return "", err
	}

	insertColumns := append([]string{IDColumn, conflictColumn}, fieldColumns...)
	insertColumns = append(insertColumns, CreatedAtColumn, UpdatedAtColumn)

	placeholders := make([]string, len(insertColumns))
	for i := range insertColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, 0, len(fieldColumns)+1)
	for _, col := range fieldColumns {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", UpdatedAtColumn, UpdatedAtColumn))

	// This is a safe use of fmt.Sprintf, identifiers are checked above and values are parameters.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING %s",
		tableName,
		strings.Join(insertColumns, ", "),
		strings.Join(placeholders, ", "),
		conflictColumn,
		strings.Join(updates, ", "),
		strings.Join(returning, ", "),
	) // #nosec G201

	return query, nil
}

func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !identifierRegex.MatchString(name) {
			return fmt.Errorf("PostgresDatabaseClient: invalid identifier %q", name)
		}
	}
	return nil
}

func toMap(document interfaces.Document) (map[string]interface{}, error) {
	switch d := document.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return d, nil
	default:
		return nil, fmt.Errorf("PostgreSQL expects documents to be map[string]interface{}, got %T", document)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func structElem(result interfaces.Document) (reflect.Value, error) {
	v := reflect.ValueOf(result)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("result must be a pointer to a struct")
	}
	return v.Elem(), nil
}

// structColumns lists the `db` tags of t in field order. Untagged fields are skipped.
func structColumns(t reflect.Type) []string {
	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, tag)
	}
	return columns
}

// fieldPointers returns pointers to the tagged fields of v, matching structColumns.
func fieldPointers(v reflect.Value) []interface{} {
	t := v.Type()
	pointers := make([]interface{}, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		pointers = append(pointers, v.Field(i).Addr().Interface())
	}
	return pointers
}
