package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Import   ImportConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// IsDevelopment reports whether the server runs in development mode
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      string
	Password  string
	DB        int
	RateLimit int           // price-list submissions per seller per window
	Window    time.Duration // rate limit window
}

// Addr returns the host:port address of the redis server
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret string
}

// StorageConfig points at the S3-compatible bucket used to archive price lists.
// An empty endpoint disables archiving.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// Enabled reports whether price-list archiving is configured
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

type ImportConfig struct {
	Schedule           string // cron spec with seconds; empty disables scheduled re-import
	FetchTimeout       time.Duration
	MaxDocumentBytes   int64
	FetchRatePerMinute int
}

func Load() *Config {
	// .env values override the process environment for local runs
	if err := godotenv.Overload(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_RATE_LIMIT", 30)
	viper.SetDefault("REDIS_RATE_WINDOW", "1m")
	viper.SetDefault("STORAGE_BUCKET", "pricelists")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("IMPORT_SCHEDULE", "")
	viper.SetDefault("IMPORT_FETCH_TIMEOUT", "30s")
	viper.SetDefault("IMPORT_MAX_DOCUMENT_BYTES", 10<<20)
	viper.SetDefault("IMPORT_FETCH_RATE_PER_MINUTE", 30)

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Database:     viper.GetString("DB_DATABASE"),
			Schema:       viper.GetString("DB_SCHEMA"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:   viper.GetBool("REDIS_ENABLED"),
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetString("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			RateLimit: viper.GetInt("REDIS_RATE_LIMIT"),
			Window:    viper.GetDuration("REDIS_RATE_WINDOW"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
		},
		Import: ImportConfig{
			Schedule:           viper.GetString("IMPORT_SCHEDULE"),
			FetchTimeout:       viper.GetDuration("IMPORT_FETCH_TIMEOUT"),
			MaxDocumentBytes:   viper.GetInt64("IMPORT_MAX_DOCUMENT_BYTES"),
			FetchRatePerMinute: viper.GetInt("IMPORT_FETCH_RATE_PER_MINUTE"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
