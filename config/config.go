package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Zego     ZegoConfig
	AWS      AWSConfig
	Room     RoomConfig
}

// Store and lock drivers accepted in RoomConfig.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	LockLocal = "local"
	LockRedis = "redis"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/classroom?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// ZegoConfig holds ZEGOCLOUD credentials. The provider is optional; an empty AppID disables it.
type ZegoConfig struct {
	AppID          uint32
	ServerSecret   string // 32 characters, from the ZEGOCLOUD console
	CallbackSecret string
	APIBaseURL     string
	TokenValidSec  int64
}

// Enabled reports whether provider credentials are configured.
func (z ZegoConfig) Enabled() bool {
	return z.AppID != 0 && z.ServerSecret != ""
}

// AWSConfig holds AWS credentials and the archive bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ArchiveBucket        string
	PresignExpireMinutes int
}

// RoomConfig tunes the coordination layer.
type RoomConfig struct {
	StoreDriver       string
	LockDriver        string
	PollInterval      time.Duration // hint sent to polling clients
	OrphanTTL         time.Duration
	SweepInterval     time.Duration
	LockTTL           time.Duration
	MaxParticipants   int
	MaxPollOptions    int
	MaxQuestionLength int
	MaxNoteLength     int
	ArchiveOnClose    bool
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	appID, err := strconv.ParseUint(getEnv("ZEGO_APP_ID", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("ZEGO_APP_ID: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "classroom"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Zego: ZegoConfig{
			AppID:          uint32(appID),
			ServerSecret:   getEnv("ZEGO_SERVER_SECRET", ""),
			CallbackSecret: getEnv("ZEGO_CALLBACK_SECRET", ""),
			APIBaseURL:     getEnv("ZEGO_API_BASE_URL", "https://rtc-api.zego.im"),
			TokenValidSec:  int64(getEnvInt("ZEGO_TOKEN_VALID_SEC", 3600*24)),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:        getEnv("AWS_S3_ARCHIVE_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Room: RoomConfig{
			StoreDriver:       strings.ToLower(getEnv("ROOM_STORE_DRIVER", StoreMemory)),
			LockDriver:        strings.ToLower(getEnv("ROOM_LOCK_DRIVER", LockLocal)),
			PollInterval:      seconds("ROOM_POLL_INTERVAL_SEC", 3),
			OrphanTTL:         seconds("ROOM_ORPHAN_TTL_SEC", 3*3600),
			SweepInterval:     seconds("ROOM_SWEEP_INTERVAL_SEC", 300),
			LockTTL:           seconds("ROOM_LOCK_TTL_SEC", 5),
			MaxParticipants:   getEnvInt("ROOM_MAX_PARTICIPANTS", 300),
			MaxPollOptions:    getEnvInt("ROOM_MAX_POLL_OPTIONS", 10),
			MaxQuestionLength: getEnvInt("ROOM_MAX_QUESTION_LENGTH", 500),
			MaxNoteLength:     getEnvInt("ROOM_MAX_NOTE_LENGTH", 4000),
			ArchiveOnClose:    getEnvBool("ROOM_ARCHIVE_ON_CLOSE", true),
		},
	}
	if err := cfg.Room.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r RoomConfig) validate() error {
	switch r.StoreDriver {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("ROOM_STORE_DRIVER: unknown driver %q", r.StoreDriver)
	}
	switch r.LockDriver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("ROOM_LOCK_DRIVER: unknown driver %q", r.LockDriver)
	}
	if r.PollInterval <= 0 || r.OrphanTTL <= 0 || r.SweepInterval <= 0 || r.LockTTL <= 0 {
		return fmt.Errorf("room intervals must be positive")
	}
	return nil
}

// NeedsRedis reports whether the configured drivers use Redis.
func (r RoomConfig) NeedsRedis() bool {
	return r.StoreDriver == StoreRedis || r.LockDriver == LockRedis
}

func seconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
