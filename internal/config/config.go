package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	Mongo   MongoConfig   `json:"mongo"`
	Auth    AuthConfig    `json:"auth"`
	Listing ListingConfig `json:"listing"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoConfig represents document database configuration
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// AuthConfig carries the JWT verification secret
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// ListingConfig controls listing read-path behavior.
// UnpaginatedFullList keeps the legacy behavior where a request with no
// filter dimensions returns the entire collection in one page.
type ListingConfig struct {
	UnpaginatedFullList bool   `json:"unpaginated_full_list"`
	DefaultPageSize     int    `json:"default_page_size"`
	ReconcileSchedule   string `json:"reconcile_schedule"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "devhubs",
			ConnectTimeout: 10 * time.Second,
		},
		Listing: ListingConfig{
			UnpaginatedFullList: true,
			DefaultPageSize:     20,
			ReconcileSchedule:   "@every 5m",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if dbName := os.Getenv("MONGODB_DATABASE"); dbName != "" {
		config.Mongo.Database = dbName
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if paginate := os.Getenv("LISTING_PAGINATE_ALL"); paginate != "" {
		config.Listing.UnpaginatedFullList = paginate != "true"
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
