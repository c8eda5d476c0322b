package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Room      RoomConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Redis     RedisConfig
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig WebSocket transport settings
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
}

// RoomConfig tunables for the room coordination layer. Every TTL and
// interval the hub uses lives here rather than at the call sites.
type RoomConfig struct {
	// SnapshotDebounce is the quiet period after the last draw event
	// before the canvas snapshot is written.
	SnapshotDebounce time.Duration
	// SnapshotWriteTimeout bounds a single debounced persistence attempt.
	SnapshotWriteTimeout time.Duration
	// CursorTTL is how long a peer cursor survives without activity.
	CursorTTL time.Duration
	// CursorSweepInterval is the eviction sweep cadence.
	CursorSweepInterval time.Duration
	// PresenceTTL is the Redis key TTL for the online-user view.
	PresenceTTL time.Duration
	// MaxChatLength is the truncation limit for chat messages.
	MaxChatLength int
}

// AuthConfig authentication settings
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	SecureCookie       bool
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment
func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using environment variables")
	}

	jwtSecret := getRequiredEnv("JWT_SECRET")
	if jwtSecret == "change-this-secret-in-production" {
		log.Fatal("[Config] JWT_SECRET must be changed from default value in production")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4096),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 5*time.Second),
		},
		Room: RoomConfig{
			SnapshotDebounce:     getDuration("SNAPSHOT_DEBOUNCE", 2*time.Second),
			SnapshotWriteTimeout: getDuration("SNAPSHOT_WRITE_TIMEOUT", 5*time.Second),
			CursorTTL:            getDuration("CURSOR_TTL", 5*time.Second),
			CursorSweepInterval:  getDuration("CURSOR_SWEEP_INTERVAL", 1*time.Second),
			PresenceTTL:          getDuration("PRESENCE_TTL", 60*time.Second),
			MaxChatLength:        getInt("MAX_CHAT_LENGTH", 2000),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization"),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			RefreshTokenExpiry: getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			SecureCookie:       getBool("SECURE_COOKIE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
	}
}

// getRequiredEnv fetches a required variable (fatal when missing)
func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("[Config] Required environment variable %s is not set", key)
	}
	return value
}

// getEnv fetches a variable with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt fetches an integer variable
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool fetches a boolean variable
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration fetches a duration variable; bare numbers are seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
