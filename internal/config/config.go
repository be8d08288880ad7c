package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration. Secret fields carry no
// envconfig tag on purpose: they are read from secret files (with an
// environment fallback for local development).
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Database
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBPassword    string

	// Redis (status read cache)
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	StatusCacheTTL time.Duration `envconfig:"STATUS_CACHE_TTL" default:"10s"`
	RedisPassword  string

	// Outbound dispatch to the automation platform
	AutomationWebhookURL string        `envconfig:"AUTOMATION_WEBHOOK_URL" required:"true"`
	DispatchTimeout      time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"30s"`

	// Inbound webhook shared secret (?key=)
	WebhookAPIKey string

	// External auth provider token verification
	AuthJWTSecret string

	// OpenAI (random story data helper); optional, the handler falls back
	// to static data when unset or failing.
	OpenAIAPIKey string
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`

	// Cover-image object storage
	StorageBucket        string        `envconfig:"STORAGE_BUCKET" default:"story-images"`
	StorageProjectID     string        `envconfig:"STORAGE_PROJECT_ID"`
	StorageCDNDomain     string        `envconfig:"STORAGE_CDN_DOMAIN"`
	ImageDownloadTimeout time.Duration `envconfig:"IMAGE_DOWNLOAD_TIMEOUT" default:"60s"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = readSecretOrEnv("db_password", "DB_PASSWORD")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.WebhookAPIKey, loadErr = readSecretOrEnv("webhook_api_key", "WEBHOOK_API_KEY")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.AuthJWTSecret, loadErr = readSecretOrEnv("auth_jwt_secret", "AUTH_JWT_SECRET")
	if loadErr != nil {
		return nil, loadErr
	}

	// Optional secrets: leave empty when absent.
	if v, err := readSecretOrEnv("openai_api_key", "OPENAI_API_KEY"); err == nil {
		cfg.OpenAIAPIKey = v
	} else {
		log.Printf("Optional secret 'openai_api_key' not found: %v. Random story data will use fallbacks.", err)
	}
	if v, err := readSecretOrEnv("redis_password", "REDIS_PASSWORD"); err == nil {
		cfg.RedisPassword = v
	}

	log.Println("Configuration loaded successfully.")
	return &cfg, nil
}

// readSecretOrEnv reads a secret from the standard Docker Secrets path,
// falling back to the named environment variable for local development.
func readSecretOrEnv(secretName, envName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found (file %s or env %s)", secretName, filePath, envName)
}
