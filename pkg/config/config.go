package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string
	BaseURL     string

	ServerPort int

	DBDriver    string
	DatabaseURL string
	AutoMigrate bool

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	SecureCookies    bool

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	Storage Storage
	Mail    Mail

	AdminEmail    string
	AdminPassword string
}

type Storage struct {
	Driver    string
	LocalRoot string
	PublicURL string

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
	S3URL      string
}

type Mail struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		BaseURL:     strings.TrimRight(EnvDefault("BASE_URL", "http://localhost:8080"), "/"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: EnvBoolDefault("AUTO_MIGRATE", false),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		SecureCookies:    EnvBoolDefault("SECURE_COOKIES", false),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    time.Duration(EnvIntDefault("SESSION_TTL_MINUTES", 120)) * time.Minute,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),

		Storage: Storage{
			Driver:    EnvDefault("STORAGE_DRIVER", "local"),
			LocalRoot: EnvDefault("STORAGE_LOCAL_ROOT", "uploads"),
			PublicURL: EnvDefault("STORAGE_URL", "/uploads"),

			S3Bucket:   os.Getenv("S3_BUCKET"),
			S3Region:   EnvDefault("S3_REGION", "eu-west-3"),
			S3Key:      os.Getenv("S3_KEY"),
			S3Secret:   os.Getenv("S3_SECRET"),
			S3Endpoint: os.Getenv("S3_ENDPOINT"),
			S3URL:      os.Getenv("S3_URL"),
		},

		Mail: Mail{
			Host:     os.Getenv("MAIL_HOST"),
			Port:     EnvDefault("MAIL_PORT", "587"),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     EnvDefault("MAIL_FROM", "boutique@localhost"),
		},

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
