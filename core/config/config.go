package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Remote   RemoteConfig
	Lookups  LookupsConfig
}

type AppConfig struct {
	Version   string
	Port      string
	Debug     bool
	BasicAuth []string
	BasePath  string
	ServerID  string
}

type PathsConfig struct {
	Storages string
}

type DatabaseConfig struct {
	Driver          string // sqlite, postgres or memory
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// RemoteConfig locates the reference-data service.
type RemoteConfig struct {
	BaseURL             string
	Token               string
	TokenSecret         string
	WorkLocationCatalog string
	CategoryCatalog     string
}

// LookupsConfig tunes the lookup cache.
type LookupsConfig struct {
	DiscriminatorPath string
	KeyPrefix         string
	WriteAttempts     int
	WriteBaseDelay    time.Duration
	FreshnessWindow   time.Duration
	SettleDelay       time.Duration
	FetchTimeout      time.Duration
	RefreshInterval   time.Duration
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	storages := getEnv("APP_BASE_DIR", "storages")

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:   "v1.0.0",
		Port:      getEnv("APP_PORT", "3000"),
		Debug:     getEnvBool("APP_DEBUG", false),
		BasicAuth: basicAuth,
		BasePath:  getEnv("APP_BASE_PATH", ""),
		ServerID:  getEnv("SERVER_ID", ""),
	}

	dbCfg := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		Name:            getEnv("DB_NAME", filepath.Join(storages, "lookups.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azlookups:"),
	}

	remoteCfg := RemoteConfig{
		BaseURL:             getEnv("REMOTE_BASE_URL", ""),
		Token:               getEnv("REMOTE_TOKEN", ""),
		TokenSecret:         getEnv("REMOTE_TOKEN_SECRET", ""),
		WorkLocationCatalog: getEnv("REMOTE_WORK_LOCATION_CATALOG", ""),
		CategoryCatalog:     getEnv("REMOTE_CATEGORY_CATALOG", ""),
	}

	lookupsCfg := LookupsConfig{
		DiscriminatorPath: getEnv("LOOKUPS_DISCRIMINATOR_PATH", "lookupType"),
		KeyPrefix:         getEnv("LOOKUPS_KEY_PREFIX", ""),
		WriteAttempts:     getEnvInt("LOOKUPS_WRITE_ATTEMPTS", 3),
		WriteBaseDelay:    getEnvMillis("LOOKUPS_WRITE_BASE_DELAY_MS", 50*time.Millisecond),
		FreshnessWindow:   getEnvMillis("LOOKUPS_FRESHNESS_WINDOW_MS", 5*time.Second),
		SettleDelay:       getEnvMillis("LOOKUPS_SETTLE_DELAY_MS", 100*time.Millisecond),
		FetchTimeout:      getEnvMillis("LOOKUPS_FETCH_TIMEOUT_MS", 0),
		RefreshInterval:   time.Duration(getEnvInt("LOOKUPS_REFRESH_INTERVAL_MIN", 0)) * time.Minute,
	}

	cfg := &Config{
		App:      appCfg,
		Paths:    PathsConfig{Storages: storages},
		Database: dbCfg,
		Remote:   remoteCfg,
		Lookups:  lookupsCfg,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Global = cfg
	return cfg, nil
}
