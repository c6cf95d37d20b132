package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// DefaultDatabaseName is used when MONGODB_DB is not set
const DefaultDatabaseName = "LibraryDB"

// DefaultSessionSecret is the development signing secret; production refuses it
const DefaultSessionSecret = "default_session_secret"

// Connection errors. They do not stop the process; the library controller
// enters its error phase and shows a diagnostic until the operator reloads.
var (
	ErrMissingConfiguration = errors.New("MISSING_CONFIGURATION")
	ErrWrongURLFormat       = errors.New("WRONG_URL_FORMAT")
)

// cloudSchemes are database connection schemes that are not web endpoints
var cloudSchemes = []string{"mongodb+srv://", "mongodb://"}

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	Store          StoreConfig
	Database       DatabaseConfig
	Gateway        GatewayConfig
	GenAI          GenAIConfig
	Session        SessionConfig
	Cron           CronConfig
	SeedSampleData bool
}

// StoreConfig selects and configures the document store behind the gateway
type StoreConfig struct {
	Driver   string
	MongoURI string
	MongoDB  string
}

// DatabaseConfig holds MySQL configuration (STORE_DRIVER=mysql)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// GatewayConfig points the repository at a remote record gateway.
// When URL is empty the in-process gateway is used.
type GatewayConfig struct {
	URL string
}

// GenAIConfig holds the generative AI settings
type GenAIConfig struct {
	APIKey string
	Model  string
}

// SessionConfig holds the shared passphrase gate settings
type SessionConfig struct {
	Passphrase   string
	Secret       string
	TokenMinutes int
	Production   bool
}

// CronConfig holds scheduled job specs
type CronConfig struct {
	RefreshSpec string
	OverdueSpec string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Missing .env is normal in production
	_ = godotenv.Load()

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	driver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", DriverMongo)))
	switch driver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: '%s' (must be 'mongo', 'mysql' or 'memory')", driver)
	}

	tokenMins, _ := strconv.Atoi(getEnv("SESSION_TOKEN_MINUTES", "480"))
	seed, _ := strconv.ParseBool(getEnv("SEED_SAMPLE_DATA", "false"))

	config := &Config{
		AppMode: appMode,
		Port:    getEnv("PORT", "3000"),
		Store: StoreConfig{
			Driver:   driver,
			MongoURI: strings.TrimSpace(os.Getenv("MONGODB_URI")),
			MongoDB:  getEnv("MONGODB_DB", DefaultDatabaseName),
		},
		Database: loadDatabaseConfig(appMode),
		Gateway: GatewayConfig{
			URL: strings.TrimSpace(os.Getenv("GATEWAY_URL")),
		},
		GenAI: GenAIConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		},
		Session: SessionConfig{
			Passphrase:   getEnv("LIBRARY_PASSPHRASE", "9595"),
			Secret:       getEnv("SESSION_SECRET", DefaultSessionSecret),
			TokenMinutes: tokenMins,
			Production:   appMode == "prod",
		},
		Cron: CronConfig{
			RefreshSpec: getEnv("CRON_REFRESH_SPEC", "@every 5m"),
			OverdueSpec: getEnv("CRON_OVERDUE_SPEC", "30 8 * * *"),
		},
		SeedSampleData: seed,
	}

	if config.Session.TokenMinutes <= 0 {
		config.Session.TokenMinutes = 480
	}

	AppConfig = config
	return config, nil
}

// loadDatabaseConfig loads MySQL config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "library"),
	}
}

// CheckConnection verifies the connection settings the library needs at start-up.
// It returns an error wrapping ErrWrongURLFormat when a database connection string was
// supplied where a web endpoint is expected, and ErrMissingConfiguration otherwise.
func (c *Config) CheckConnection() error {
	if c.Gateway.URL != "" {
		if IsCloudScheme(c.Gateway.URL) {
			return fmt.Errorf("%w: GATEWAY_URL uses a database connection scheme", ErrWrongURLFormat)
		}
		u, err := url.Parse(c.Gateway.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: GATEWAY_URL is not a valid http(s) endpoint", ErrMissingConfiguration)
		}
		return nil
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("%w: MONGODB_URI is not set", ErrMissingConfiguration)
		}
		if !IsCloudScheme(c.Store.MongoURI) {
			return fmt.Errorf("%w: MONGODB_URI must start with mongodb:// or mongodb+srv://", ErrMissingConfiguration)
		}
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database host and name are required", ErrMissingConfiguration)
		}
	}
	return nil
}

// IsCloudScheme reports whether s starts with a MongoDB connection scheme
func IsCloudScheme(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, scheme := range cloudSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.emaihl.org"
	}
	return origins
}
