package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"
	ENV_PATH    = ".env"

	DefaultServiceName = "llmvault"
	DefaultLogLevel    = "info"
	DefaultPort        = "4000"
	DefaultTimeout     = 10 * time.Second

	DatabaseTypeMongo    = "mongo"
	DatabaseTypePostgres = "postgres"

	UsersCollection     = "users"
	ResponsesCollection = "llmresponses"
)

// Environment variables read on top of the config file.
const (
	EnvMongoURI    = "MONGODB_URI"
	EnvDatabaseURL = "DATABASE_URL"
	EnvPort        = "PORT"
	EnvHost        = "HOST"
	EnvLogLevel    = "LOG_LEVEL"
	EnvServiceName = "SERVICE_NAME"
	EnvDBName      = "DB_NAME"
	EnvDBTimeout   = "DB_TIMEOUT"
)

// ErrMissingDSN is returned when no storage connection string was configured.
var ErrMissingDSN = errors.New("MONGODB_URI missing: a storage connection string is required")

// RequiredCollections and RequiredFields are the collections and field names
// the MongoDB repositories query and write. A MongoDB config whose allow lists
// miss any of them is rejected by Validate.
var (
	RequiredCollections = []string{UsersCollection, ResponsesCollection}
	RequiredFields      = []string{
		"clerkId", "email", "firstName", "lastName",
		"responseId", "user", "request", "requestUrl", "response",
	}
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName string   `yaml:"service_name" mapstructure:"service_name" validate:"required"`
	LogLevel    string   `yaml:"loglevel" mapstructure:"loglevel" validate:"required"`
	Host        string   `yaml:"host" mapstructure:"host"`
	Port        string   `yaml:"port" mapstructure:"port" validate:"required,numeric"`
	Database    Database `yaml:"database" mapstructure:"database" validate:"required"`
}

// Database holds the storage connection settings. The backend is picked from
// the DSN scheme.
type Database struct {
	DSN string `yaml:"dsn" mapstructure:"dsn" validate:"required"`
	// DatabaseName overrides the database named in a MongoDB DSN path.
	DatabaseName string         `yaml:"database_name" mapstructure:"database_name"`
	Timeout      time.Duration  `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MongoDB      MongoDBConfig  `yaml:"mongodb_config" mapstructure:"mongodb_config"`
	Postgres     PostgresConfig `yaml:"postgres_config" mapstructure:"postgres_config"`
}

type MongoDBConfig struct {
	Options          MongoServerOptions `yaml:"mongo_server_options" mapstructure:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections" mapstructure:"valid_collections" validate:"required,min=1"`
	ValidFields      []string           `yaml:"valid_fields" mapstructure:"valid_fields" validate:"required,min=1"`
}

type PostgresConfig struct {
	Options PostgresServerOptions `yaml:"postgres_server_options" mapstructure:"postgres_server_options"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version" mapstructure:"api_version"`
	SetStrict            bool   `yaml:"set_strict" mapstructure:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors" mapstructure:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// LoadOptions describes where Load looks for configuration. Non-empty Port and
// LogLevel override every other source.
type LoadOptions struct {
	ConfigPath string
	EnvFile    string
	Port       string
	LogLevel   string
}

// Default returns the configuration used when no file or environment value
// overrides a field.
func Default() *ServiceConfig {
	return &ServiceConfig{
		ServiceName: DefaultServiceName,
		LogLevel:    DefaultLogLevel,
		Port:        DefaultPort,
		Database: Database{
			Timeout: DefaultTimeout,
			MongoDB: MongoDBConfig{
				ValidCollections: append([]string(nil), RequiredCollections...),
				ValidFields:      append([]string(nil), RequiredFields...),
			},
		},
	}
}

// Load builds the service configuration from, in increasing precedence: the
// defaults, the YAML file, the .env file and process environment, and opts.
// A missing file is tolerated only when it is the default one.
func Load(opts LoadOptions) (*ServiceConfig, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = CONFIG_PATH
	}

	cfg, err := ReadLocalConfig(configPath)
	if err != nil {
		if opts.ConfigPath != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ENV_PATH
	}
	if err := godotenv.Load(envFile); err != nil {
		if opts.EnvFile != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// Fields absent from the file keep their default values.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := Default()

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays environment values onto cfg. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *ServiceConfig, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	overrides := map[string]interface{}{}
	database := map[string]interface{}{}

	if v, ok := get(EnvServiceName); ok {
		overrides["service_name"] = v
	}
	if v, ok := get(EnvLogLevel); ok {
		overrides["loglevel"] = v
	}
	if v, ok := get(EnvHost); ok {
		overrides["host"] = v
	}
	if v, ok := get(EnvPort); ok {
		overrides["port"] = v
	}
	if v, ok := get(EnvMongoURI); ok {
		database["dsn"] = v
	} else if v, ok := get(EnvDatabaseURL); ok {
		database["dsn"] = v
	}
	if v, ok := get(EnvDBName); ok {
		database["database_name"] = v
	}
	if v, ok := get(EnvDBTimeout); ok {
		database["timeout"] = v
	}
	if len(database) > 0 {
		overrides["database"] = database
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to create env decoder: %w", err)
	}

	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return nil
}

// Validate checks cfg with the struct validator. A missing DSN is reported as
// ErrMissingDSN.
func Validate(cfg *ServiceConfig) error {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return ErrMissingDSN
	}

	validator := structValidator.New()
	if err := validator.Struct(cfg); err != nil {
		var validationErrors structValidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return fmt.Errorf("validation error: %s", validationErrors)
		}
		return err
	}

	dbType, err := DatabaseTypeFromDSN(cfg.Database.DSN)
	if err != nil {
		return err
	}

	if dbType == DatabaseTypeMongo {
		if err := requireAll("valid_collections", cfg.Database.MongoDB.ValidCollections, RequiredCollections); err != nil {
			return err
		}
		if err := requireAll("valid_fields", cfg.Database.MongoDB.ValidFields, RequiredFields); err != nil {
			return err
		}
	}

	return nil
}

// requireAll reports the entries of required that are missing from have.
func requireAll(name string, have, required []string) error {
	present := make(map[string]bool, len(have))
	for _, v := range have {
		present[v] = true
	}

	var missing []string
	for _, v := range required {
		if !present[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("validation error: %s is missing %s", name, strings.Join(missing, ", "))
	}
	return nil
}

// DatabaseTypeFromDSN returns DatabaseTypeMongo or DatabaseTypePostgres
// depending on the DSN scheme.
func DatabaseTypeFromDSN(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return DatabaseTypeMongo, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DatabaseTypePostgres, nil
	default:
		return "", fmt.Errorf("unsupported database DSN scheme, expected mongodb://, mongodb+srv:// or postgres://")
	}
}

// Address returns the host:port the HTTP server listens on.
func (c *ServiceConfig) Address() string {
	return c.Host + ":" + c.Port
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	if cfg.APIVersion == "" {
		return nil
	}
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
